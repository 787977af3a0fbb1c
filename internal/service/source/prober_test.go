package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	keyCount int32
	err      error

	gotBucket string
	gotPrefix string
}

func (f *fakeLister) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.gotBucket = aws.ToString(params.Bucket)
	f.gotPrefix = aws.ToString(params.Prefix)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.ListObjectsV2Output{KeyCount: aws.Int32(f.keyCount)}, nil
}

func TestProbeS3Found(t *testing.T) {
	lister := &fakeLister{keyCount: 1}
	p := NewWithClient(lister)

	err := p.Probe(context.Background(), "s3://bucket/trips/year=2026/*.parquet")
	require.NoError(t, err)
	assert.Equal(t, "bucket", lister.gotBucket)
	assert.Equal(t, "trips/year=2026/", lister.gotPrefix, "prefix truncated at the wildcard")
}

func TestProbeS3Empty(t *testing.T) {
	p := NewWithClient(&fakeLister{keyCount: 0})
	err := p.Probe(context.Background(), "s3://bucket/trips/data.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no objects found")
}

func TestProbeS3ListError(t *testing.T) {
	boom := errors.New("access denied")
	p := NewWithClient(&fakeLister{err: boom})
	err := p.Probe(context.Background(), "s3://bucket/trips/data.parquet")
	require.ErrorIs(t, err, boom)
}

func TestProbeS3WithoutCredentials(t *testing.T) {
	p := New(nil)
	err := p.Probe(context.Background(), "s3://bucket/key.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no S3 credentials")
}

func TestProbeS3MalformedPath(t *testing.T) {
	p := NewWithClient(&fakeLister{keyCount: 1})
	for _, uri := range []string{"s3://bucket", "s3:///key.parquet"} {
		err := p.Probe(context.Background(), uri)
		assert.Error(t, err, uri)
	}
}

func TestProbeLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n1\n"), 0o644))

	p := New(nil)
	assert.NoError(t, p.Probe(context.Background(), path))
	assert.NoError(t, p.Probe(context.Background(), "file://"+path))
	assert.NoError(t, p.Probe(context.Background(), filepath.Join(dir, "*.csv")))
	assert.Error(t, p.Probe(context.Background(), filepath.Join(dir, "missing.csv")))
	assert.Error(t, p.Probe(context.Background(), filepath.Join(dir, "*.parquet")))
}

func TestGlobPrefix(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"trips/data.parquet", "trips/data.parquet"},
		{"trips/*.parquet", "trips/"},
		{"trips/year=?/part.parquet", "trips/year="},
		{"*.csv", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, globPrefix(tt.key), tt.key)
	}
}
