package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Region    string
	Bucket    string
	Directory string

	// Optional. Set for S3-compatible stores such as Backblaze B2.
	Endpoint string

	// Optional. When empty the default AWS credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

type s3Store struct {
	bucket    string
	directory string
	client    *s3.Client
	uploader  *manager.Uploader
}

func NewS3Store(config S3Config) (Store, error) {
	if config.Bucket == "" {
		return nil, ErrEmptyBucketName
	}

	ctx := context.TODO()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}
	if config.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: config.Endpoint}, nil
			})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// Compatible stores generally require path-style addressing
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = config.Endpoint != ""
	})
	uploader := manager.NewUploader(client)

	return &s3Store{config.Bucket, config.Directory, client, uploader}, nil
}

func (s *s3Store) objectKey(key string) string {
	if s.directory == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.directory, key)
}

func (s *s3Store) Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	return err
}

func (s *s3Store) List(ctx context.Context) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	var prefix string
	if s.directory != "" {
		prefix = s.directory + "/"
		input.Prefix = aws.String(prefix)
	}

	objects := []Object{}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, content := range page.Contents {
			objects = append(objects, Object{
				Key:  strings.TrimPrefix(aws.ToString(content.Key), prefix),
				Size: content.Size,
			})
		}
	}
	return objects, nil
}

func (s *s3Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return resp.Body, aws.ToString(resp.ContentType), nil
}
