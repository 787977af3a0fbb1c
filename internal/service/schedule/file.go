package schedule

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"lakewap/internal/domain"
)

// scheduleFile is the on-disk YAML shape:
//
//	entries:
//	  - schedule: "30 2 * * *"
//	    table: trips
//	    namespace: social
//	    source: s3://bucket/trips/*.parquet
//	    on_success: merge
//	    on_failure: delete
//	    min_rows: 1000
type scheduleFile struct {
	Entries []scheduleEntry `yaml:"entries"`
}

type scheduleEntry struct {
	Schedule  string `yaml:"schedule"`
	Table     string `yaml:"table"`
	Namespace string `yaml:"namespace"`
	Source    string `yaml:"source"`
	OnSuccess string `yaml:"on_success"`
	OnFailure string `yaml:"on_failure"`
	MinRows   int64  `yaml:"min_rows"`
	Strict    bool   `yaml:"strict"`
}

// LoadEntries reads a schedule file. Omitted policies default to
// inspect/keep. Work-order validation happens at registration time, not
// here; only structural problems are errors.
func LoadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule file: %w", err)
	}
	defer f.Close()
	return ParseEntries(f)
}

// ParseEntries decodes schedule YAML, rejecting unknown fields.
func ParseEntries(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file scheduleFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse schedule file: %w", err)
	}
	if len(file.Entries) == 0 {
		return nil, fmt.Errorf("schedule file has no entries")
	}

	out := make([]Entry, 0, len(file.Entries))
	for i, e := range file.Entries {
		if e.Schedule == "" {
			return nil, fmt.Errorf("entry %d: schedule is required", i)
		}
		if e.OnSuccess == "" {
			e.OnSuccess = string(domain.SuccessInspect)
		}
		if e.OnFailure == "" {
			e.OnFailure = string(domain.FailureKeep)
		}
		out = append(out, Entry{
			Schedule: e.Schedule,
			Order: domain.WorkOrder{
				Table:         e.Table,
				Namespace:     e.Namespace,
				SourceURI:     e.Source,
				OnSuccess:     domain.SuccessPolicy(e.OnSuccess),
				OnFailure:     domain.FailurePolicy(e.OnFailure),
				MinRows:       e.MinRows,
				StrictQuality: e.Strict,
			},
		})
	}
	return out, nil
}
