package files

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core"
)

type s3Storage struct {
	client *s3.Client
	bucket string
}

var _ core.FileStorage = (*s3Storage)(nil)

// NewS3Storage stores blobs in the configured S3 bucket.
func NewS3Storage(ctx context.Context, conf *core.Config) (*s3Storage, error) {
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.FileStorage.Region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return &s3Storage{
		client: s3.NewFromConfig(awsConf),
		bucket: conf.FileStorage.Bucket,
	}, nil
}

func (s *s3Storage) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	// S3 needs the full payload to sign the request
	body, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading content")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return 0, errors.Wrap(err, "putting object")
	}
	return int64(len(body)), nil
}

func (s *s3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, core.ErrFileNotFound
		}
		return nil, errors.Wrap(err, "getting object")
	}
	return out.Body, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrap(err, "deleting object")
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}
