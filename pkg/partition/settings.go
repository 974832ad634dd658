package partition

import (
	"github.com/ajitpratap0/nebula-ftp/pkg/config"
)

// Settings are the connector level options every sub-task of a job carries.
// A job builds one Settings value and all of its sub-tasks share it; nothing
// writes to it after construction.
type Settings struct {
	FileFormat     string
	FieldDelimiter string
	Header         bool
	Compress       string
	Encoding       string
	NullFormat     string
	// DateFormat, WriteMode and FileName only apply to writers
	DateFormat string
	WriteMode  string
	FileName   string
}

// ReadSettings derives the settings of a reader job.
func ReadSettings(cfg *config.ReaderConfig) *Settings {
	return &Settings{
		FileFormat:     cfg.FileFormat.Type,
		FieldDelimiter: cfg.FileFormat.FieldDelimiter,
		Header:         cfg.FileFormat.Header,
		Compress:       cfg.Compress,
		Encoding:       cfg.Encoding,
		NullFormat:     cfg.NullFormat,
	}
}

// WriteSettings derives the settings of a writer job.
func WriteSettings(cfg *config.WriterConfig) *Settings {
	return &Settings{
		FileFormat:     cfg.FileFormat.Type,
		FieldDelimiter: cfg.FileFormat.FieldDelimiter,
		Header:         cfg.FileFormat.Header,
		Compress:       cfg.Compress,
		Encoding:       cfg.Encoding,
		NullFormat:     cfg.NullFormat,
		DateFormat:     cfg.DateFormat,
		WriteMode:      cfg.WriteMode,
		FileName:       cfg.FileName,
	}
}

func (s *Settings) values(into map[string]interface{}) {
	into["file_format"] = s.FileFormat
	into["field_delimiter"] = s.FieldDelimiter
	into["header"] = s.Header
	into["compress"] = s.Compress
	into["encoding"] = s.Encoding
	into["null_format"] = s.NullFormat
	if s.DateFormat != "" {
		into["date_format"] = s.DateFormat
	}
	if s.WriteMode != "" {
		into["write_mode"] = s.WriteMode
	}
	if s.FileName != "" {
		into["file_name"] = s.FileName
	}
}
