package uploads

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

// S3Config describes an S3 compatible bucket (AWS or MinIO).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store keeps uploads as objects. Location is a presigned GET URL so that
// ffprobe can stream the object without local disk.
type S3Store struct {
	api     objectAPI
	presign presignAPI
	bucket  string
	now     func() time.Time
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, s3.NewPresignClient(client), c.Bucket), nil
}

func newS3Store(api objectAPI, presign presignAPI, bucket string) *S3Store {
	return &S3Store{api: api, presign: presign, bucket: bucket, now: time.Now}
}

// storageKey mirrors the date-partitioned layout used for other objects.
func (s *S3Store) storageKey(name string) string {
	d := s.now().UTC()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), extension(name))
}

func (s *S3Store) Save(ctx context.Context, name string, size int64, r io.Reader) (Resource, error) {
	key := s.storageKey(name)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	res := &s3Resource{store: s, key: key, name: name}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		_ = res.Release(ctx)
		return nil, fmt.Errorf("presign get %s: %w", key, err)
	}
	res.url = req.URL

	return res, nil
}

type s3Resource struct {
	store    *S3Store
	key      string
	name     string
	url      string
	released atomic.Bool
}

func (r *s3Resource) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := r.store.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.store.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", r.key, err)
	}
	return out.Body, nil
}

func (r *s3Resource) Location() string { return r.url }

func (r *s3Resource) Name() string { return r.name }

func (r *s3Resource) Release(ctx context.Context) error {
	if !r.released.CompareAndSwap(false, true) {
		return nil
	}
	if _, err := r.store.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.store.bucket),
		Key:    aws.String(r.key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", r.key, err)
	}
	return nil
}
