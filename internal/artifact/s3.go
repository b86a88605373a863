package artifact

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ZacxDev/video-captioner/internal/capture"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultPresignExpiry = time.Hour

type S3Options struct {
	Bucket string
	Region string
	// Prefix is prepended to every key; a trailing slash is added if missing.
	Prefix string
	// Profile selects a shared config profile.
	Profile      string
	UsePathStyle bool
	Expires      time.Duration
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store uploads artifacts to a bucket and returns presigned GET URLs.
type S3Store struct {
	client    objectPutter
	presigner objectPresigner
	bucket    string
	prefix    string
	expires   time.Duration
	logger    *slog.Logger
}

// NewS3Store builds a store from the default AWS credential chain.
func NewS3Store(ctx context.Context, opts S3Options, logger *slog.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})
	return newS3Store(client, s3.NewPresignClient(client), opts, logger), nil
}

func newS3Store(client objectPutter, presigner objectPresigner, opts S3Options, logger *slog.Logger) *S3Store {
	prefix := opts.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	expires := opts.Expires
	if expires <= 0 {
		expires = DefaultPresignExpiry
	}
	return &S3Store{
		client:    client,
		presigner: presigner,
		bucket:    opts.Bucket,
		prefix:    prefix,
		expires:   expires,
		logger:    logger,
	}
}

func (s *S3Store) Backend() types.StorageBackend { return types.StorageBackendS3 }

func (s *S3Store) Save(ctx context.Context, name string, rec *capture.Recording) (*Artifact, error) {
	if err := checkRecording(rec); err != nil {
		return nil, err
	}
	key := s.prefix + uuid.NewString() + "/" + name
	body := rec.Bytes()

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if rec.MimeType != "" {
		in.ContentType = aws.String(rec.MimeType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return nil, errors.Wrapf(err, "failed to upload s3://%s/%s", s.bucket, key)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = s.expires
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to presign artifact URL")
	}

	if s.logger != nil {
		s.logger.Debug("artifact uploaded", "bucket", s.bucket, "key", key, "bytes", len(body))
	}
	return &Artifact{
		URL:      req.URL,
		Key:      key,
		Size:     int64(len(body)),
		MimeType: rec.MimeType,
	}, nil
}
