package config

import (
	"fmt"
	"strings"
)

// Transport kinds understood by the remote/transport package.
const (
	TransportFTP    = "ftp"
	TransportS3     = "s3"
	TransportGCS    = "gcs"
	TransportLocal  = "local"
	TransportMemory = "memory"
)

// ServerConfig locates the remote file endpoint. Only the fields relevant to
// Kind are read.
type ServerConfig struct {
	Kind     string `yaml:"kind" json:"kind"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	// DisableEPSV forces PASV for servers that reject extended passive mode
	DisableEPSV bool `yaml:"disable_epsv" json:"disable_epsv"`
	// Bucket, Region, Endpoint and CredentialsFile apply to object stores
	Bucket          string `yaml:"bucket" json:"bucket"`
	Region          string `yaml:"region" json:"region"`
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	// Root confines the local transport to a base directory
	Root string `yaml:"root" json:"root"`
}

// Address returns host:port for socket based transports.
func (s *ServerConfig) Address() string {
	port := s.Port
	if port == 0 {
		port = 21
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

// Validate checks that the fields required by Kind are present.
func (s *ServerConfig) Validate() error {
	switch strings.ToLower(s.Kind) {
	case TransportFTP:
		if s.Host == "" {
			return fmt.Errorf("server.host is required for ftp")
		}
		if s.Port < 0 || s.Port > 65535 {
			return fmt.Errorf("server.port %d out of range", s.Port)
		}
	case TransportS3, TransportGCS:
		if s.Bucket == "" {
			return fmt.Errorf("server.bucket is required for %s", s.Kind)
		}
	case TransportLocal, TransportMemory:
	case "":
		return fmt.Errorf("server.kind is required")
	default:
		return fmt.Errorf("unknown server.kind %q", s.Kind)
	}
	return nil
}

// FileFormatConfig describes the layout of the transferred files.
type FileFormatConfig struct {
	// Type is "csv" or "text"
	Type string `yaml:"type" json:"type"`
	// FieldDelimiter is a single character, "," when empty
	FieldDelimiter string `yaml:"field_delimiter" json:"field_delimiter"`
	// Header marks the first line as column names
	Header bool `yaml:"header" json:"header"`
}

// ReaderConfig holds the reader-side options.
type ReaderConfig struct {
	// Path is one absolute root, Paths adds more
	Path  string   `yaml:"path" json:"path"`
	Paths []string `yaml:"paths" json:"paths"`
	// Column is the textual column specification
	Column     string           `yaml:"column" json:"column"`
	FileFormat FileFormatConfig `yaml:"file_format" json:"file_format"`
	Compress   string           `yaml:"compress" json:"compress"`
	Encoding   string           `yaml:"encoding" json:"encoding"`
	NullFormat string           `yaml:"null_format" json:"null_format"`
	// MaxTraversalLevel bounds directory recursion; nil means unset
	MaxTraversalLevel *int `yaml:"max_traversal_level" json:"max_traversal_level"`
}

// Roots returns every configured root path, Path first.
func (r *ReaderConfig) Roots() []string {
	roots := make([]string, 0, len(r.Paths)+1)
	if strings.TrimSpace(r.Path) != "" {
		roots = append(roots, strings.TrimSpace(r.Path))
	}
	for _, p := range r.Paths {
		if strings.TrimSpace(p) != "" {
			roots = append(roots, strings.TrimSpace(p))
		}
	}
	return roots
}

// WriterConfig holds the writer-side options.
type WriterConfig struct {
	Path string `yaml:"path" json:"path"`
	// FileName is the target file name prefix; the table name when empty
	FileName string `yaml:"file_name" json:"file_name"`
	// WriteMetaData writes a manifest of the source schema before the data
	WriteMetaData bool             `yaml:"write_meta_data" json:"write_meta_data"`
	WriteMode     string           `yaml:"write_mode" json:"write_mode"`
	Compress      string           `yaml:"compress" json:"compress"`
	Encoding      string           `yaml:"encoding" json:"encoding"`
	NullFormat    string           `yaml:"null_format" json:"null_format"`
	DateFormat    string           `yaml:"date_format" json:"date_format"`
	FileFormat    FileFormatConfig `yaml:"file_format" json:"file_format"`
}

// ConnectorConfig is the root of a job file.
type ConnectorConfig struct {
	BaseConfig `yaml:",inline" json:",inline"`

	Server ServerConfig  `yaml:"server" json:"server"`
	Reader *ReaderConfig `yaml:"reader,omitempty" json:"reader,omitempty"`
	Writer *WriterConfig `yaml:"writer,omitempty" json:"writer,omitempty"`
}

// NewConnectorConfig returns a configuration with base defaults and an ftp server.
func NewConnectorConfig(name string) *ConnectorConfig {
	return &ConnectorConfig{
		BaseConfig: *NewBaseConfig(name, "ftp"),
		Server: ServerConfig{
			Kind: TransportFTP,
			Port: 21,
		},
	}
}

// ApplyDefaults fills option tokens the user left empty.
func (c *ConnectorConfig) ApplyDefaults() {
	if c.Reader != nil {
		applyFormatDefaults(&c.Reader.FileFormat)
		if c.Reader.Compress == "" {
			c.Reader.Compress = "none"
		}
		if c.Reader.Encoding == "" {
			c.Reader.Encoding = "utf-8"
		}
	}
	if c.Writer != nil {
		applyFormatDefaults(&c.Writer.FileFormat)
		if c.Writer.Compress == "" {
			c.Writer.Compress = "none"
		}
		if c.Writer.Encoding == "" {
			c.Writer.Encoding = "utf-8"
		}
		if c.Writer.WriteMode == "" {
			c.Writer.WriteMode = "truncate"
		}
	}
}

func applyFormatDefaults(f *FileFormatConfig) {
	if f.Type == "" {
		f.Type = "csv"
	}
	if f.FieldDelimiter == "" {
		f.FieldDelimiter = ","
	}
}

// Validate validates the base and server sections.
func (c *ConnectorConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Reader == nil && c.Writer == nil {
		return fmt.Errorf("one of reader or writer is required")
	}
	return nil
}
