// Package source probes ingestion source URIs before provisioning, so a
// missing or empty source fails the run in the provisioning phase instead
// of surfacing as an opaque query-engine error mid-import.
package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// listObjectsAPI is the slice of the S3 client the prober needs.
type listObjectsAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Prober verifies that a source URI resolves to at least one object.
// S3 URIs are checked with a single-key listing; everything else is treated
// as a local path or glob.
type Prober struct {
	client listObjectsAPI
}

// S3Config carries credentials for S3-compatible object storage. A non-empty
// Endpoint switches to path-style addressing for non-AWS providers.
type S3Config struct {
	KeyID    string
	Secret   string
	Region   string
	Endpoint string
}

// New builds a prober. cfg may be nil when only local sources are probed.
func New(cfg *S3Config) *Prober {
	p := &Prober{}
	if cfg != nil {
		opts := s3.Options{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		}
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.Contains(endpoint, "://") {
				endpoint = "https://" + endpoint
			}
			opts.BaseEndpoint = aws.String(endpoint)
			opts.UsePathStyle = true
		}
		p.client = s3.New(opts)
	}
	return p
}

// NewWithClient builds a prober around an existing S3 client.
func NewWithClient(client listObjectsAPI) *Prober {
	return &Prober{client: client}
}

// Probe returns nil when the URI resolves to at least one object or file.
func (p *Prober) Probe(ctx context.Context, uri string) error {
	if strings.HasPrefix(uri, "s3://") {
		return p.probeS3(ctx, uri)
	}
	return probeLocal(uri)
}

func (p *Prober) probeS3(ctx context.Context, uri string) error {
	if p.client == nil {
		return fmt.Errorf("source %q: no S3 credentials configured", uri)
	}
	bucket, key, err := parseS3Path(uri)
	if err != nil {
		return err
	}

	out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(globPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("list %q: %w", uri, err)
	}
	if out.KeyCount == nil || *out.KeyCount == 0 {
		return fmt.Errorf("source %q: no objects found", uri)
	}
	return nil
}

func probeLocal(uri string) error {
	path := strings.TrimPrefix(uri, "file://")
	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return fmt.Errorf("source %q: bad glob: %w", uri, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("source %q: no files match", uri)
		}
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("source %q: %w", uri, err)
	}
	return nil
}

// globPrefix truncates a key at its first wildcard, giving the listing
// prefix for glob sources like "trips/year=2026/*.parquet".
func globPrefix(key string) string {
	if i := strings.IndexAny(key, "*?["); i >= 0 {
		return key[:i]
	}
	return key
}

// parseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func parseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed S3 path %q", s3Path)
	}
	return bucket, key, nil
}
