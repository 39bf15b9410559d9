package export

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// Uploader copies a local export into object storage.
type Uploader interface {
	Upload(ctx context.Context, state, file string) (string, error)
}

// S3Config configures an S3 compatible bucket.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool

	// Prefix is prepended to object keys.
	Prefix string
}

// objectStore is the subset of *minio.Client used by S3.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3 uploads exports with minio-go.
type S3 struct {
	client objectStore
	cfg    S3Config
	now    func() time.Time
}

// NewS3 connects to the endpoint described by cfg.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewConfigError("s3", "endpoint is required", nil)
	}
	if cfg.Bucket == "" {
		return nil, errors.NewConfigError("s3", "bucket is required", nil)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.NewConfigError("s3", "credentials are required", nil)
	}

	endpoint := cfg.Endpoint
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.NewConfigError("s3", "failed to create client", err)
	}
	return newS3(client, cfg), nil
}

func newS3(client objectStore, cfg S3Config) *S3 {
	return &S3{client: client, cfg: cfg, now: time.Now}
}

// Key returns the object key for a state export uploaded at t.
func (s *S3) Key(state string, t time.Time) string {
	name := fmt.Sprintf("%s/%s-%s", strings.ToUpper(state), t.UTC().Format(constants.TimeFormatFilename), FileName(state))
	if s.cfg.Prefix != "" {
		return path.Join(s.cfg.Prefix, name)
	}
	return name
}

// Upload puts file into the bucket, creating the bucket when missing, and
// returns the object key.
func (s *S3) Upload(ctx context.Context, state, file string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return "", errors.WrapIO("open", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.WrapIO("stat", file, err)
	}

	key := s.Key(state, s.now())
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType:  "text/csv",
		UserMetadata: map[string]string{"state": strings.ToUpper(state)},
	})
	if err != nil {
		return "", errors.WrapIO("upload", s.cfg.Bucket+"/"+key, err)
	}

	logging.FromContext(ctx).Info().
		Str("bucket", s.cfg.Bucket).
		Str("key", key).
		Int64("bytes", info.Size()).
		Msg("Uploaded export")
	return key, nil
}

func (s *S3) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return errors.WrapIO("stat", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return errors.WrapIO("mkbucket", s.cfg.Bucket, err)
	}
	return nil
}
