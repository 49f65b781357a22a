// Package s3store はS3互換オブジェクトストレージへの画像保存を提供します。
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"foodlog_backend/internal/feature/image/usecase"
)

// Options configures the bucket and how object URLs are built.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string // MinIOなどS3互換エンドポイント。空ならAWS
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // CDNなど公開URLの基底。空ならオブジェクトURLを組み立てる
	UsePathStyle    bool
	PublicRead      bool
	KeyPrefix       string
}

// PutObjectAPI is the subset of *s3.Client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Storage uploads images as objects and returns their public URL.
type Storage struct {
	client PutObjectAPI
	opts   Options
}

var _ usecase.ImageStorage = (*Storage)(nil)

// NewClient は設定からS3クライアントを構築します。
// アクセスキーが空の場合はデフォルトの認証情報チェーンを使用します。
func NewClient(ctx context.Context, o Options) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	}), nil
}

// NewStorage はStorageを生成します。
func NewStorage(client PutObjectAPI, o Options) (*Storage, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if o.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	return &Storage{client: client, opts: o}, nil
}

func (s *Storage) key(filename string) string {
	if s.opts.KeyPrefix == "" {
		return filename
	}
	return strings.TrimSuffix(s.opts.KeyPrefix, "/") + "/" + filename
}

// Save はオブジェクトをアップロードし、公開URLを返します。
func (s *Storage) Save(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := s.key(filename)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}
	if s.opts.PublicRead {
		in.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

// ObjectURL はキーに対応する公開URLを組み立てます。
func (s *Storage) ObjectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.opts.PublicBaseURL != "" {
		return strings.TrimSuffix(s.opts.PublicBaseURL, "/") + "/" + escaped
	}
	if s.opts.Endpoint != "" {
		base := strings.TrimSuffix(s.opts.Endpoint, "/")
		if s.opts.UsePathStyle {
			return base + "/" + s.opts.Bucket + "/" + escaped
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			u.Host = s.opts.Bucket + "." + u.Host
			return strings.TrimSuffix(u.String(), "/") + "/" + escaped
		}
		return base + "/" + s.opts.Bucket + "/" + escaped
	}
	if s.opts.UsePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.opts.Region, s.opts.Bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, escaped)
}
