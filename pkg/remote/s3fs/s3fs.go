// Package s3fs serves the remote capabilities from an S3 bucket.
//
// Object keys are mapped to absolute paths by prefixing "/". Directories are
// the common prefixes of a delimited listing, so an empty directory only
// exists when a "dir/" marker object is present.
package s3fs

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

const delimiter = "/"

// Client is the subset of the S3 API the transport calls.
type Client interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
	manager.UploadAPIClient
}

// FS is an S3 bucket session.
type FS struct {
	client   Client
	bucket   string
	uploader *manager.Uploader
}

var _ remote.FileSystem = (*FS)(nil)

// New builds a client from the default AWS credential chain. Static
// credentials are used when the server config carries a username (access
// key) and password (secret key); Endpoint targets S3 compatible stores.
func New(ctx context.Context, server config.ServerConfig) (*FS, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if server.Region != "" {
		opts = append(opts, awsconfig.WithRegion(server.Region))
	}
	if server.Username != "" && server.Password != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(server.Username, server.Password, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load aws configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if server.Endpoint != "" {
			o.BaseEndpoint = aws.String(server.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, server.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, bucket string) *FS {
	return &FS{
		client:   client,
		bucket:   bucket,
		uploader: manager.NewUploader(client),
	}
}

func toKey(p string) string {
	return strings.TrimPrefix(remote.CleanPath(p), "/")
}

func toPath(key string) string {
	return "/" + strings.TrimSuffix(key, delimiter)
}

// List implements remote.FileLister.
func (f *FS) List(ctx context.Context, p string) ([]remote.Entry, error) {
	key := toKey(p)
	prefix := ""
	if key != "" {
		prefix = key + delimiter
	}

	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})

	var entries []remote.Entry
	marker := false
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, "list", p)
		}
		for _, cp := range page.CommonPrefixes {
			entries = append(entries, remote.Entry{Path: toPath(aws.ToString(cp.Prefix)), IsDir: true})
		}
		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			if objKey == prefix {
				marker = true
				continue
			}
			entries = append(entries, remote.Entry{
				Path:    toPath(objKey),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	if len(entries) > 0 || marker || key == "" {
		if entries == nil {
			entries = []remote.Entry{}
		}
		return entries, nil
	}

	// nothing under the prefix: p is either an object or missing
	head, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err, "list", p)
	}
	return []remote.Entry{{
		Path:    toPath(key),
		Size:    aws.ToInt64(head.ContentLength),
		ModTime: aws.ToTime(head.LastModified),
	}}, nil
}

// Exists implements remote.FileLister.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := f.List(ctx, p)
	if err == nil {
		return true, nil
	}
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return false, nil
	}
	return false, err
}

// MkdirAll is a no-op: prefixes need no creation.
func (f *FS) MkdirAll(ctx context.Context, dir string) error {
	return ctx.Err()
}

// Put implements remote.FileWriter using the multipart upload manager.
func (f *FS) Put(ctx context.Context, p string, r io.Reader) error {
	_, err := f.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(toKey(p)),
		Body:   r,
	})
	if err != nil {
		return classify(err, "put", p)
	}
	return nil
}

// Close implements remote.FileSystem.
func (f *FS) Close() error {
	return nil
}

func classify(err error, op, p string) error {
	var (
		notFound  *types.NotFound
		noKey     *types.NoSuchKey
		noBucket  *types.NoSuchBucket
		converted *errors.Error
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noKey), errors.As(err, &noBucket):
		converted = errors.Wrap(err, errors.ErrorTypeNotFound, "no such object")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		converted = errors.Wrap(err, errors.ErrorTypeTimeout, "s3 request aborted")
	default:
		converted = errors.Wrap(err, errors.ErrorTypeConnection, "s3 request failed")
	}
	return converted.
		WithDetail("operation", op).
		WithDetail("path", path.Clean(p))
}
