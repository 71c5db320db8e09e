// File: internal/state/s3.go
package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"lakehouse/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Backend keeps state in an S3 (or S3-compatible) object, using ETag
// conditional writes for optimistic concurrency.
type S3Backend struct {
	client *s3.Client
	bucket string
	key    string
	logger *slog.Logger
}

func NewS3Backend(ctx context.Context, awsCfg config.AWSConfig, bucket, prefix string, logger *slog.Logger) (*S3Backend, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if awsCfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(awsCfg.Region))
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if awsCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Backend{
		client: client,
		bucket: bucket,
		key:    objectKey(prefix),
		logger: logger,
	}, nil
}

func (b *S3Backend) Describe() string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.key)
}

func (b *S3Backend) Load(ctx context.Context) (*State, error) {
	b.logger.Debug("Loading state", "location", b.Describe())

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return New(), nil
		}
		return nil, fmt.Errorf("error opening state object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading state object: %w", err)
	}

	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s.token = aws.ToString(out.ETag)
	return s, nil
}

func (b *S3Backend) Save(ctx context.Context, s *State) error {
	s.prepareSave(time.Now())
	data, err := Encode(s)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/yaml"),
	}
	if s.token == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(s.token)
	}

	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: %s", ErrConflict, b.Describe())
		}
		return fmt.Errorf("error writing state object: %w", err)
	}

	s.markSaved(aws.ToString(out.ETag))
	b.logger.Debug("Saved state", "location", b.Describe(), "serial", s.Serial)
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func (b *S3Backend) Close() error {
	return nil
}
