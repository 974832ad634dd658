// Package registry maps connector type tags to the constructors of their
// readers and writers. Connector packages register themselves from init; no
// reflection or dynamic loading is involved.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/core"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

// ReaderFactory creates a reader bound to an open transport.
type ReaderFactory func(cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Reader, error)

// WriterFactory creates a writer bound to an open transport.
type WriterFactory func(cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Writer, error)

// Factory is the registration of one connector type. Either constructor may
// be nil when the connector only reads or only writes.
type Factory struct {
	Reader ReaderFactory
	Writer WriterFactory
	Info   ConnectorInfo
}

// ConnectorInfo provides information about a connector
type ConnectorInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Transports  []string `json:"transports"`
}

// Registry manages connector registration and instantiation
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// Register adds the factory for tag.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return errors.New(errors.ErrorTypeConfig, "connector tag is required")
	}
	if factory.Reader == nil && factory.Writer == nil {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s registers neither reader nor writer", tag))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[tag]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s already registered", tag))
	}

	r.factories[tag] = factory
	r.logger.Debug("connector registered",
		zap.String("tag", tag),
		zap.Bool("reader", factory.Reader != nil),
		zap.Bool("writer", factory.Writer != nil))
	return nil
}

func (r *Registry) lookup(tag string) (Factory, error) {
	r.mu.RLock()
	factory, exists := r.factories[tag]
	r.mu.RUnlock()

	if !exists {
		return Factory{}, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s not found", tag)).
			WithDetail("tag", tag)
	}
	return factory, nil
}

// CreateReader creates a reader of connector type tag.
func (r *Registry) CreateReader(tag string, cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Reader, error) {
	factory, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	if factory.Reader == nil {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s has no reader", tag))
	}

	reader, err := factory.Reader(cfg, fs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create reader %s", tag))
	}
	return reader, nil
}

// CreateWriter creates a writer of connector type tag.
func (r *Registry) CreateWriter(tag string, cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Writer, error) {
	factory, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	if factory.Writer == nil {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s has no writer", tag))
	}

	writer, err := factory.Writer(cfg, fs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create writer %s", tag))
	}
	return writer, nil
}

// Info returns the registration metadata of tag.
func (r *Registry) Info(tag string) (ConnectorInfo, error) {
	factory, err := r.lookup(tag)
	if err != nil {
		return ConnectorInfo{}, err
	}
	return factory.Info, nil
}

// List returns the registered tags in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Has checks if a connector is registered
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[tag]
	return exists
}

// Clear removes all registered connectors (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
}

// Global registry functions

// Register registers a connector in the global registry
func Register(tag string, factory Factory) error {
	return globalRegistry.Register(tag, factory)
}

// CreateReader creates a reader from the global registry
func CreateReader(tag string, cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Reader, error) {
	return globalRegistry.CreateReader(tag, cfg, fs)
}

// CreateWriter creates a writer from the global registry
func CreateWriter(tag string, cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Writer, error) {
	return globalRegistry.CreateWriter(tag, cfg, fs)
}

// List returns the tags registered in the global registry
func List() []string {
	return globalRegistry.List()
}

// Has checks if a tag is registered in the global registry
func Has(tag string) bool {
	return globalRegistry.Has(tag)
}

// Info returns metadata from the global registry
func Info(tag string) (ConnectorInfo, error) {
	return globalRegistry.Info(tag)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
