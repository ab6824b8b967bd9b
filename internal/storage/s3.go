// Package storage は画像ファイルのオブジェクトストレージ保存を提供する。
// AWS SDK v2を使用し、S3互換ストレージ（AWS S3, MinIO等）に対応する。
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config はオブジェクトストレージの接続設定。
type Config struct {
	Endpoint     string // S3互換エンドポイント。空の場合はAWS S3
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicBase   string // 公開URL組み立てのベース。空の場合はendpoint/bucketを使用
	UsePathStyle bool
}

// UploadRecorder はアップロード結果のメトリクス記録を受け取る。
// metrics.MetricsCollectorの部分集合として定義する。
type UploadRecorder interface {
	RecordImageUpload(success bool)
}

// S3ImageStore はS3互換ストレージを使用した画像ストア。
type S3ImageStore struct {
	client     *s3.Client
	bucket     string
	publicBase string
	recorder   UploadRecorder // nilの場合は記録しない
}

// SetRecorder はアップロード結果のレコーダーを設定する。
func (s *S3ImageStore) SetRecorder(recorder UploadRecorder) {
	s.recorder = recorder
}

func (s *S3ImageStore) record(success bool) {
	if s.recorder != nil {
		s.recorder.RecordImageUpload(success)
	}
}

// NewS3ImageStore はS3ImageStoreを生成する。
func NewS3ImageStore(ctx context.Context, cfg Config) (*S3ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	publicBase := strings.TrimRight(cfg.PublicBase, "/")
	if publicBase == "" {
		if cfg.Endpoint != "" {
			publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	return &S3ImageStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: publicBase,
	}, nil
}

// Upload は画像をアップロードし、公開取得用のURLを返す。
func (s *S3ImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.record(false)
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	s.record(true)
	return s.publicBase + "/" + key, nil
}
