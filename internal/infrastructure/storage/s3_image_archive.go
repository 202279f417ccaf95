package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Options параметры подключения к S3-совместимому хранилищу
type S3Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	Prefix          string
}

// s3API — часть клиента S3, которой пользуется архив.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3ImageArchive складывает изображения в бакет S3
type S3ImageArchive struct {
	client s3API
	opts   S3Options
	log    *zap.Logger
}

// NewS3ImageArchive создаёт клиента и проверяет бакет.
func NewS3ImageArchive(ctx context.Context, opts S3Options, log *zap.Logger) (*S3ImageArchive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})

	archive := newS3ImageArchive(client, opts, log)
	if err := archive.ensureBucketExists(ctx); err != nil {
		log.Warn("Failed to ensure bucket exists", zap.String("bucket", opts.BucketName), zap.Error(err))
	}
	return archive, nil
}

func newS3ImageArchive(client s3API, opts S3Options, log *zap.Logger) *S3ImageArchive {
	return &S3ImageArchive{client: client, opts: opts, log: log}
}

func (a *S3ImageArchive) ensureBucketExists(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.opts.BucketName),
	})
	if err == nil {
		return nil
	}

	a.log.Info("Creating bucket", zap.String("bucket", a.opts.BucketName))

	input := &s3.CreateBucketInput{Bucket: aws.String(a.opts.BucketName)}
	// us-east-1 не принимает LocationConstraint
	if a.opts.Region != "" && a.opts.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(a.opts.Region),
		}
	}
	_, err = a.client.CreateBucket(ctx, input)
	return err
}

// Key возвращает ключ объекта для имени изображения
func (a *S3ImageArchive) Key(name string) string {
	prefix := strings.Trim(a.opts.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Put загружает изображение в бакет
func (a *S3ImageArchive) Put(ctx context.Context, name string, data []byte) error {
	key := a.Key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.opts.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentTypeFor(name)),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		a.log.Error("Failed to upload image to S3", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("put object %s: %w", key, err)
	}

	a.log.Info("Image uploaded to S3", zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

func contentTypeFor(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
