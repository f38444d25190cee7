package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/record"
)

const s3Scheme = "s3://"

func newFile(ctx context.Context, def definition.ExportDefinition, opts Options) (Exporter, error) {
	if bucket, prefix, ok := parseS3Path(def.OutputFilePath); ok {
		s, err := newObjectStore(bucket, prefix, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if strings.HasPrefix(def.OutputFilePath, s3Scheme) {
		return nil, &PersistenceError{Target: def.OutputFilePath, Op: "configure",
			Err: errors.New("s3 output path needs a bucket")}
	}
	return &FileExporter{path: def.OutputFilePath, logger: opts.Logger}, nil
}

// FileExporter appends one JSON line per envelope to a local file.
type FileExporter struct {
	path   string
	logger *slog.Logger
}

func (e *FileExporter) Export(_ context.Context, result record.Result) error {
	line, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	line = append(line, '\n')

	if dir := filepath.Dir(e.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &PersistenceError{Target: e.path, Op: "create directory", Err: err}
		}
	}

	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistenceError{Target: e.path, Op: "open", Err: err}
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return &PersistenceError{Target: e.path, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return &PersistenceError{Target: e.path, Op: "close", Err: err}
	}

	e.logger.Debug("envelope written", "path", e.path, "records", len(result.Records))
	return nil
}

func (e *FileExporter) Close() error { return nil }

// ObjectStoreExporter writes each envelope to its own object,
// <prefix>/<file_name>.json, in an S3 compatible bucket.
type ObjectStoreExporter struct {
	client objectStore
	bucket string
	prefix string
	region string
	logger *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// objectStore is the part of *minio.Client the exporter uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

func newObjectStore(bucket, prefix string, opts Options) (*ObjectStoreExporter, error) {
	target := s3Scheme + bucket
	endpoint := strings.TrimSpace(opts.S3.Endpoint)
	if endpoint == "" {
		return nil, &PersistenceError{Target: target, Op: "configure", Err: errors.New("S3_ENDPOINT is not set")}
	}
	region := strings.TrimSpace(opts.S3.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.S3.AccessKey, opts.S3.SecretKey, ""),
		Secure: opts.S3.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, &PersistenceError{Target: target, Op: "configure", Err: err}
	}

	return &ObjectStoreExporter{
		client: client,
		bucket: bucket,
		prefix: prefix,
		region: region,
		logger: opts.Logger,
	}, nil
}

// ensureBucket creates the bucket when it is missing. A failed check is
// retried on the next export.
func (e *ObjectStoreExporter) ensureBucket(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bucketReady {
		return nil
	}

	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{Region: e.region}); err != nil {
			return err
		}
	}
	e.bucketReady = true
	return nil
}

func (e *ObjectStoreExporter) Export(ctx context.Context, result record.Result) error {
	key := objectKey(e.prefix, result.FileName)
	target := s3Scheme + e.bucket + "/" + key

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := e.ensureBucket(ctx); err != nil {
		return &PersistenceError{Target: target, Op: "ensure bucket", Err: err}
	}

	info, err := e.client.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return &PersistenceError{Target: target, Op: "put object", Err: err}
	}
	e.logger.Debug("envelope stored", "target", target, "etag", info.ETag, "records", len(result.Records))
	return nil
}

func (e *ObjectStoreExporter) Close() error { return nil }

// parseS3Path splits s3://bucket/prefix. The prefix may be empty.
func parseS3Path(p string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(p, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, strings.Trim(prefix, "/"), true
}

func objectKey(prefix, fileName string) string {
	name := path.Base(filepath.ToSlash(fileName)) + ".json"
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
