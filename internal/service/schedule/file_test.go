package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakewap/internal/domain"
)

const scheduleYAML = `
entries:
  - schedule: "30 2 * * *"
    table: trips
    namespace: social
    source: s3://bucket/trips/*.parquet
    on_success: merge
    on_failure: delete
    min_rows: 1000
  - schedule: "@hourly"
    table: riders
    namespace: social
    source: /data/riders.csv
    on_success: inspect
    on_failure: keep
    strict: true
`

func TestParseEntries(t *testing.T) {
	entries, err := ParseEntries(strings.NewReader(scheduleYAML))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "30 2 * * *", entries[0].Schedule)
	assert.Equal(t, domain.WorkOrder{
		Table:     "trips",
		Namespace: "social",
		SourceURI: "s3://bucket/trips/*.parquet",
		OnSuccess: domain.SuccessMerge,
		OnFailure: domain.FailureDelete,
		MinRows:   1000,
	}, entries[0].Order)

	assert.Equal(t, "@hourly", entries[1].Schedule)
	assert.True(t, entries[1].Order.StrictQuality)
}

func TestParseEntriesDefaultPolicies(t *testing.T) {
	yaml := `
entries:
  - schedule: "@daily"
    table: trips
    namespace: social
    source: /data/trips.parquet
`
	entries, err := ParseEntries(strings.NewReader(yaml))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	order := entries[0].Order
	assert.Equal(t, domain.SuccessInspect, order.OnSuccess)
	assert.Equal(t, domain.FailureKeep, order.OnFailure)
	require.NoError(t, order.Validate(), "defaulted entry passes registration")
}

func TestParseEntriesRejections(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty file",
			yaml:    "entries: []\n",
			wantErr: "no entries",
		},
		{
			name: "missing schedule",
			yaml: "entries:\n  - table: trips\n    namespace: social\n    source: /d.csv\n",
			wantErr: "schedule is required",
		},
		{
			name: "unknown field",
			yaml: "entries:\n  - schedule: \"@daily\"\n    cron: \"@daily\"\n",
			wantErr: "cron",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntries(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
