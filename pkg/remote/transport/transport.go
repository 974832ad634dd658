// Package transport opens the remote filesystem selected by a server
// configuration and wraps it with the connector's retry and rate limits.
package transport

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/aferofs"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/ftpfs"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/gcsfs"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/s3fs"
)

// Open connects to the endpoint described by cfg.Server. The returned
// filesystem retries retryable failures up to cfg.Reliability.MaxRetry times,
// honours cfg.Reliability.RateLimitPerSec, bounds each call by
// cfg.Timeouts.Request and keeps at most cfg.Performance.MaxConcurrency calls
// in flight.
func Open(ctx context.Context, cfg *config.ConnectorConfig, log *zap.Logger) (remote.FileSystem, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid server configuration")
	}

	dialCtx := ctx
	if timeout := cfg.Timeouts.Connection; timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fs, err := dial(dialCtx, cfg, log)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.Reliability.IsRateLimited() {
		limiter = remote.NewLimiter(cfg.Reliability.RateLimitPerSec)
	}

	log.Debug("transport opened",
		zap.String("kind", cfg.Server.Kind),
		zap.Int("max_retry", cfg.Reliability.MaxRetry),
		zap.Int("rate_limit_per_sec", cfg.Reliability.RateLimitPerSec),
		zap.Int("max_concurrency", cfg.Performance.MaxConcurrency),
		zap.Duration("request_timeout", cfg.Timeouts.Request))

	return remote.WithRetry(fs,
		remote.PolicyFromConfig(cfg.Reliability),
		limiter,
		log.With(zap.String("component", "transport")),
		remote.WithCallTimeout(cfg.Timeouts.Request),
		remote.WithMaxConcurrency(cfg.Performance.MaxConcurrency),
	), nil
}

func dial(ctx context.Context, cfg *config.ConnectorConfig, log *zap.Logger) (remote.FileSystem, error) {
	switch strings.ToLower(cfg.Server.Kind) {
	case config.TransportFTP:
		return ftpfs.Dial(ctx, cfg.Server, cfg.Timeouts.Connection, log)
	case config.TransportS3:
		return s3fs.New(ctx, cfg.Server)
	case config.TransportGCS:
		return gcsfs.New(ctx, cfg.Server)
	case config.TransportLocal:
		return aferofs.NewLocal(cfg.Server.Root), nil
	case config.TransportMemory:
		return aferofs.NewMemory(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported transport %q", cfg.Server.Kind)
	}
}
