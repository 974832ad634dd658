// Package gcsfs serves the remote capabilities from a Google Cloud Storage
// bucket. Paths map to object names the same way as the S3 transport.
package gcsfs

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

const delimiter = "/"

// FS is a GCS bucket session.
type FS struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

var _ remote.FileSystem = (*FS)(nil)

// New creates a storage client. Application default credentials are used
// unless a credentials file is configured.
func New(ctx context.Context, server config.ServerConfig) (*FS, error) {
	opts := []option.ClientOption{}
	if server.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(server.CredentialsFile))
	}
	if server.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(server.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create gcs client").
			WithDetail("bucket", server.Bucket)
	}
	return &FS{client: client, bucket: client.Bucket(server.Bucket)}, nil
}

func toObject(p string) string {
	return strings.TrimPrefix(remote.CleanPath(p), "/")
}

func toPath(name string) string {
	return "/" + strings.TrimSuffix(name, delimiter)
}

func listPrefix(object string) string {
	if object == "" {
		return ""
	}
	return object + delimiter
}

// List implements remote.FileLister.
func (f *FS) List(ctx context.Context, p string) ([]remote.Entry, error) {
	object := toObject(p)
	prefix := listPrefix(object)

	it := f.bucket.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: delimiter})
	entries := []remote.Entry{}
	marker := false
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify(err, "list", p)
		}
		switch {
		case attrs.Prefix != "":
			entries = append(entries, remote.Entry{Path: toPath(attrs.Prefix), IsDir: true})
		case attrs.Name == prefix:
			marker = true
		default:
			entries = append(entries, remote.Entry{
				Path:    toPath(attrs.Name),
				Size:    attrs.Size,
				ModTime: attrs.Updated,
			})
		}
	}

	if len(entries) > 0 || marker || object == "" {
		return entries, nil
	}

	attrs, err := f.bucket.Object(object).Attrs(ctx)
	if err != nil {
		return nil, classify(err, "list", p)
	}
	return []remote.Entry{{Path: toPath(attrs.Name), Size: attrs.Size, ModTime: attrs.Updated}}, nil
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

// Put implements remote.FileWriter.
func (f *FS) Put(ctx context.Context, p string, r io.Reader) error {
	w := f.bucket.Object(toObject(p)).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return classify(err, "put", p)
	}
	if err := w.Close(); err != nil {
		return classify(err, "put", p)
	}
	return nil
}

// Close releases the client.
func (f *FS) Close() error {
	return f.client.Close()
}

func classify(err error, op, p string) error {
	var converted *errors.Error
	switch {
	case errors.Is(err, storage.ErrObjectNotExist), errors.Is(err, storage.ErrBucketNotExist):
		converted = errors.Wrap(err, errors.ErrorTypeNotFound, "no such object")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		converted = errors.Wrap(err, errors.ErrorTypeTimeout, "gcs request aborted")
	default:
		converted = errors.Wrap(err, errors.ErrorTypeConnection, "gcs request failed")
	}
	return converted.WithDetail("operation", op).WithDetail("path", p)
}
