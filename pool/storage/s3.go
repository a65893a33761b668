package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3State implements State backed by a single S3 object.
type S3State struct {
	bucket string
	key    string
	s3     s3GetObjectAPI
}

func NewS3State(s3Client s3GetObjectAPI, bucket, key string) *S3State {
	return &S3State{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3State) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, s.key)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
