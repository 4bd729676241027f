package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

// s3DeleteBatch is the S3 limit for keys per DeleteObjects call.
const s3DeleteBatch = 1000

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string

	// AccessKey is the AWS access key ID (required).
	AccessKey string

	// SecretKey is the AWS secret access key (required).
	SecretKey string

	// Endpoint is the custom S3 endpoint URL (optional, for MinIO or other S3-compatible services).
	Endpoint string

	// Region is the AWS region (default: us-east-1).
	Region string

	// Prefix is prepended to every object key, e.g. "uploads".
	Prefix string

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool
}

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
}

func (c *S3Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("%w: s3 bucket and credentials are required", ErrInvalidConfig)
	}
	return nil
}

// s3API is the subset of *s3.Client used by S3Backend.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Backend stores files as objects keyed "<prefix>/<owner>/<key>".
type S3Backend struct {
	client s3API
	cfg    S3Config
}

// NewS3Backend creates an S3Backend with the given configuration.
func NewS3Backend(cfg S3Config) (*S3Backend, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &S3Backend{
		client: s3.New(s3.Options{}, opts...),
		cfg:    cfg,
	}, nil
}

// Write uploads r as a single object.
// The body is buffered because the SDK needs a seekable payload to sign; the
// caller bounds its size.
func (b *S3Backend) Write(ctx context.Context, ownerID, key, contentType string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, ioFailure("read upload", err)
	}

	if contentType == "" {
		contentType = MIMEOctetStream
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.Bucket),
		Key:           aws.String(b.objectKey(ownerID, key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return 0, wrapS3Error(err, "put object")
	}

	return int64(len(data)), nil
}

// Exists checks the object with HeadObject.
func (b *S3Backend) Exists(ctx context.Context, ownerID, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.objectKey(ownerID, key)),
	})
	if err != nil {
		err = wrapS3Error(err, "head object")
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Open retrieves the object body. The caller must close it.
func (b *S3Backend) Open(ctx context.Context, ownerID, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.objectKey(ownerID, key)),
	})
	if err != nil {
		return nil, wrapS3Error(err, "get object")
	}
	return out.Body, nil
}

// Remove deletes the object. S3 deletes are idempotent; NotFound is ignored
// for S3-compatible services that report it anyway.
func (b *S3Backend) Remove(ctx context.Context, ownerID, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.objectKey(ownerID, key)),
	})
	if err != nil {
		err = wrapS3Error(err, "delete object")
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// RemoveAll deletes every object under the owner's prefix.
func (b *S3Backend) RemoveAll(ctx context.Context, ownerID string) error {
	prefix := b.objectKey(ownerID, "")

	pager := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.cfg.Bucket),
		Prefix: aws.String(prefix),
	})

	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return wrapS3Error(err, "list objects")
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}

		for start := 0; start < len(ids); start += s3DeleteBatch {
			end := min(start+s3DeleteBatch, len(ids))
			out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(b.cfg.Bucket),
				Delete: &types.Delete{
					Objects: ids[start:end],
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				return wrapS3Error(err, "delete objects")
			}
			if out != nil && len(out.Errors) > 0 {
				first := out.Errors[0]
				return fmt.Errorf("%w: delete objects: %d failed, first %s: %s",
					ErrIOFailure, len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
			}
		}
	}

	return nil
}

// objectKey builds "<prefix>/<owner>/<key>". An empty key yields the owner
// prefix with a trailing slash.
func (b *S3Backend) objectKey(ownerID, key string) string {
	var sb strings.Builder
	if b.cfg.Prefix != "" {
		sb.WriteString(b.cfg.Prefix)
		sb.WriteByte('/')
	}
	sb.WriteString(ownerID)
	sb.WriteByte('/')
	sb.WriteString(key)
	return sb.String()
}

// Ensure S3Backend implements Backend.
var _ Backend = (*S3Backend)(nil)
