package ftp

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/ajitpratap0/nebula-ftp/pkg/compression"
	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

// Write modes.
const (
	WriteModeTruncate    = "truncate"
	WriteModeAppend      = "append"
	WriteModeNonConflict = "nonConflict"
)

// File formats.
const (
	FormatCSV  = "csv"
	FormatText = "text"
)

// DefaultMaxTraversalLevel applies when the reader leaves the depth unset.
const DefaultMaxTraversalLevel = 100

var writeModes = []string{WriteModeTruncate, WriteModeAppend, WriteModeNonConflict}

func validateCompress(token string, writing bool) error {
	if writing {
		_, err := compression.LookupWritableToken(token)
		return err
	}
	_, err := compression.LookupToken(token)
	return err
}

// validateEncoding accepts any IANA charset name x/text can decode.
func validateEncoding(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrorTypeConfig, "encoding must not be empty")
	}
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil || enc == nil {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported encoding %q", name).WithDetail("encoding", name)
	}
	return nil
}

func validateFileFormat(f config.FileFormatConfig) error {
	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case FormatCSV, FormatText:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown file format %q, expected %s or %s", f.Type, FormatCSV, FormatText)
	}
	if utf8.RuneCountInString(unescapeDelimiter(f.FieldDelimiter)) != 1 {
		return errors.Newf(errors.ErrorTypeConfig, "field delimiter %q must be a single character", f.FieldDelimiter)
	}
	return nil
}

// unescapeDelimiter turns the textual escapes users type in job files into
// the character they stand for.
func unescapeDelimiter(d string) string {
	switch d {
	case `\t`:
		return "\t"
	case `\001`, `\u0001`:
		return "\x01"
	default:
		return d
	}
}

func validateWriteMode(mode string) error {
	for _, m := range writeModes {
		if strings.EqualFold(m, strings.TrimSpace(mode)) {
			return nil
		}
	}
	return errors.Newf(errors.ErrorTypeConfig, "unknown write mode %q, expected one of %s",
		mode, strings.Join(writeModes, ", ")).WithDetail("write_mode", mode)
}

func normalizeWriteMode(mode string) string {
	for _, m := range writeModes {
		if strings.EqualFold(m, strings.TrimSpace(mode)) {
			return m
		}
	}
	return mode
}

func validateDateFormat(format string) error {
	if format != "" && strings.TrimSpace(format) == "" {
		return errors.New(errors.ErrorTypeConfig, "date format must not be blank")
	}
	return nil
}

func validateFileName(name string) error {
	if strings.ContainsAny(name, `/\`) {
		return errors.Newf(errors.ErrorTypeConfig, "file name %q must not contain a path separator", name)
	}
	return nil
}
