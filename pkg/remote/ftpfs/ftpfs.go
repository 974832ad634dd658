// Package ftpfs serves the remote capabilities over an FTP control
// connection using github.com/jlaffaye/ftp.
//
// A session owns exactly one control connection. FTP does not allow
// interleaved commands on it, so every call holds the session mutex.
package ftpfs

import (
	"context"
	"io"
	"net"
	"net/textproto"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

const anonymous = "anonymous"

// FS is an FTP session.
type FS struct {
	mu     sync.Mutex
	conn   *ftp.ServerConn
	logger *zap.Logger
}

var _ remote.FileSystem = (*FS)(nil)

// Dial connects and logs in. Anonymous login is used when no username is
// configured.
func Dial(ctx context.Context, server config.ServerConfig, timeout time.Duration, log *zap.Logger) (*FS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	address := server.Address()

	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithDisabledEPSV(server.DisableEPSV),
	}
	if timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(timeout))
	}

	conn, err := ftp.Dial(address, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to ftp server").
			WithDetail("address", address)
	}

	user, password := server.Username, server.Password
	if user == "" {
		user, password = anonymous, anonymous
	}
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, errors.Wrap(err, errors.ErrorTypeAuthentication, "ftp login failed").
			WithDetail("address", address).
			WithDetail("username", user)
	}

	log.Debug("ftp session established", zap.String("address", address), zap.String("username", user))
	return &FS{conn: conn, logger: log}, nil
}

// List implements remote.FileLister.
func (f *FS) List(ctx context.Context, p string) ([]remote.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = remote.CleanPath(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.conn.ChangeDir(p); err != nil {
		// not a directory: a plain file answers SIZE
		if size, sizeErr := f.conn.FileSize(p); sizeErr == nil {
			return []remote.Entry{{Path: p, Size: size}}, nil
		}
		return nil, classify(err, "list", p)
	}

	items, err := f.conn.List(p)
	if err != nil {
		return nil, classify(err, "list", p)
	}
	return toEntries(p, items), nil
}

func toEntries(dir string, items []*ftp.Entry) []remote.Entry {
	entries := make([]remote.Entry, 0, len(items))
	for _, item := range items {
		// Links are not followed.
		if item.Type == ftp.EntryTypeLink {
			continue
		}
		name := path.Base(item.Name)
		if name == "." || name == ".." || name == "/" {
			continue
		}
		entries = append(entries, remote.Entry{
			Path:    path.Join(dir, name),
			IsDir:   item.Type == ftp.EntryTypeFolder,
			Size:    int64(item.Size),
			ModTime: item.Time,
		})
	}
	return entries
}

// Exists implements remote.FileLister.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p = remote.CleanPath(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.conn.ChangeDir(p); err == nil {
		return true, nil
	}
	if _, err := f.conn.FileSize(p); err != nil {
		err = classify(err, "exists", p)
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MkdirAll implements remote.FileWriter.
func (f *FS) MkdirAll(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, prefix := range prefixes(dir) {
		if err := f.conn.ChangeDir(prefix); err == nil {
			continue
		}
		if err := f.conn.MakeDir(prefix); err != nil {
			return classify(err, "mkdir", prefix)
		}
	}
	return nil
}

// prefixes returns every ancestor of dir from the top, dir included.
func prefixes(dir string) []string {
	dir = remote.CleanPath(dir)
	if dir == "/" || dir == "." {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(dir, "/"), "/")
	out := make([]string, 0, len(parts))
	current := ""
	for _, part := range parts {
		current += "/" + part
		out = append(out, current)
	}
	return out
}

// Put implements remote.FileWriter.
func (f *FS) Put(ctx context.Context, p string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = remote.CleanPath(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.conn.Stor(p, r); err != nil {
		return classify(err, "put", p)
	}
	return nil
}

// Close sends QUIT and closes the control connection.
func (f *FS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.conn.Quit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close ftp session")
	}
	return nil
}

// classify maps FTP replies to error types: 550 is a missing path, other 5xx
// are permanent and 4xx replies or socket errors are transient.
func classify(err error, op, p string) error {
	var reply *textproto.Error
	if errors.As(err, &reply) {
		var e *errors.Error
		switch {
		case reply.Code == ftp.StatusFileUnavailable:
			e = errors.Wrap(err, errors.ErrorTypeNotFound, "no such file or directory")
		case reply.Code == ftp.StatusNotLoggedIn:
			e = errors.Wrap(err, errors.ErrorTypeAuthentication, "not logged in")
		case reply.Code >= 400 && reply.Code < 500:
			e = errors.Wrap(err, errors.ErrorTypeConnection, "transient ftp failure")
		default:
			e = errors.Wrap(err, errors.ErrorTypeFile, "ftp command rejected")
		}
		return e.WithDetail("operation", op).WithDetail("path", p).WithDetail("code", reply.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "ftp operation timed out").
			WithDetail("operation", op).WithDetail("path", p)
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, "ftp operation failed").
		WithDetail("operation", op).WithDetail("path", p)
}
