package fetch

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore reads objects from an S3-compatible service.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// S3Config configures MinioObjects. Empty keys fall back to IAM credentials.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioObjects is an ObjectStore backed by minio-go.
type MinioObjects struct {
	client *minio.Client
}

func NewMinioObjects(cfg S3Config) (*MinioObjects, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewIAM("")
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access != "" && secret != "" {
		creds = credentials.NewStaticV4(access, secret, "")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &MinioObjects{client: client}, nil
}

func (m *MinioObjects) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (m *MinioObjects) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// ParseS3URI splits s3://bucket/key. The scheme is matched case-insensitively;
// a missing key yields "".
func ParseS3URI(uri string) (bucket, key string) {
	if len(uri) < 5 || !strings.EqualFold(uri[:5], "s3://") {
		return "", ""
	}
	rest := uri[5:]
	bucket, key, _ = strings.Cut(rest, "/")
	return bucket, key
}

// ListS3 expands an s3://bucket/prefix/ into object URIs. Directory
// placeholder keys are skipped and, when exts is non-empty, only keys with a
// matching extension (case-insensitive) are returned.
func (f *Fetcher) ListS3(ctx context.Context, prefixURI string, exts ...string) ([]string, error) {
	if f.objects == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	bucket, prefix := ParseS3URI(prefixURI)
	if bucket == "" {
		return nil, fmt.Errorf("not an s3:// uri: %q", prefixURI)
	}
	keys, err := f.objects.List(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefixURI, err)
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}
	var uris []string
	for _, k := range keys {
		if strings.HasSuffix(k, "/") {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(path.Ext(k))] {
			continue
		}
		uris = append(uris, "s3://"+bucket+"/"+k)
	}
	return uris, nil
}
