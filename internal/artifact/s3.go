package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	keyPrefix = "vocabularies/"
	keySuffix = ".tar.gz"
)

// ErrNotFound is returned when a named artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Bucket is the object storage used by Publish and Fetch.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// S3Config configures an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Bucket is a Bucket backed by minio-go.
type S3Bucket struct {
	client   *minio.Client
	name     string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Bucket creates a client for cfg. The bucket is created on first use.
func NewS3Bucket(cfg S3Config) (*S3Bucket, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Bucket{client: client, name: bucket, region: region}, nil
}

func (b *S3Bucket) ensure(ctx context.Context) error {
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.name)
		if err != nil {
			b.initErr = err
			return
		}
		if exists {
			return
		}
		b.initErr = b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{Region: b.region})
	})
	return b.initErr
}

// Put uploads r under key.
func (b *S3Bucket) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := b.ensure(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := b.client.PutObject(ctx, b.name, key, r, size, minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	return err
}

// Get opens the object under key.
func (b *S3Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := b.ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	if _, err := b.client.StatObject(ctx, b.name, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, err
	}
	obj, err := b.client.GetObject(ctx, b.name, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// List returns the keys under prefix.
func (b *S3Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	var keys []string
	for obj := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func objectKey(name string) string {
	return keyPrefix + strings.Trim(name, "/") + keySuffix
}

// Publish archives the vocabulary files of the corpus root dir and uploads
// them as name. It returns the object key.
func Publish(ctx context.Context, b Bucket, name, dir string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("artifact name is required")
	}
	tmp, err := os.CreateTemp("", "apkfeat-*.tar.gz")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	n, err := WriteArchive(tmp, dir, VocabularyFiles)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("no vocabulary files under %s", dir)
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	key := objectKey(name)
	if err := b.Put(ctx, key, tmp, size); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	slog.Info("Published vocabulary", "key", key, "files", n, "bytes", size)
	return key, nil
}

// Fetch downloads the artifact name and extracts it into dest.
func Fetch(ctx context.Context, b Bucket, name, dest string) (int, error) {
	key := objectKey(name)
	rc, err := b.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	n, err := ExtractArchive(rc, dest)
	if err != nil {
		return n, fmt.Errorf("extract %s: %w", key, err)
	}
	slog.Info("Fetched vocabulary", "key", key, "files", n, "dest", dest)
	return n, nil
}

// List returns the names of published artifacts, sorted.
func List(ctx context.Context, b Bucket) ([]string, error) {
	keys, err := b.List(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		if !strings.HasSuffix(k, keySuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(k, keyPrefix), keySuffix))
	}
	sort.Strings(names)
	return names, nil
}
