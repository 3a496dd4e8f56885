package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig holds S3-compatible endpoint settings.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Object implements Medium on an S3-compatible bucket, one JSON object per
// key.
type Object struct {
	client *minio.Client
	bucket string
}

// NewObject connects to the endpoint and creates the bucket when missing.
func NewObject(ctx context.Context, cfg ObjectConfig) (*Object, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Object{client: client, bucket: cfg.Bucket}, nil
}

// objectName maps "profile:sectionKey" to "profile/sectionKey.json".
func objectName(key string) string {
	return strings.ReplaceAll(key, ":", "/") + ".json"
}

func (o *Object) Get(ctx context.Context, key string) (string, bool, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return "", false, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read object %s: %w", key, err)
	}
	return string(data), true, nil
}

func (o *Object) Set(ctx context.Context, key, value string) error {
	_, err := o.client.PutObject(ctx, o.bucket, objectName(key), strings.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "QuotaExceeded" || resp.Code == "EntityTooLarge" || resp.StatusCode == http.StatusInsufficientStorage {
			return fmt.Errorf("put object %s: %w: %v", key, ErrQuotaExceeded, err)
		}
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func (o *Object) Ping(ctx context.Context) error {
	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", o.bucket)
	}
	return nil
}
