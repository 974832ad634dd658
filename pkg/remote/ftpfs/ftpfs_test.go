package ftpfs

import (
	"io"
	"net/textproto"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      errors.ErrorType
		retryable bool
	}{
		{"missing", &textproto.Error{Code: ftp.StatusFileUnavailable, Msg: "No such file"}, errors.ErrorTypeNotFound, false},
		{"not logged in", &textproto.Error{Code: ftp.StatusNotLoggedIn, Msg: "Login"}, errors.ErrorTypeAuthentication, false},
		{"busy", &textproto.Error{Code: ftp.StatusNotAvailable, Msg: "Too many users"}, errors.ErrorTypeConnection, true},
		{"rejected", &textproto.Error{Code: ftp.StatusBadFileName, Msg: "bad name"}, errors.ErrorTypeFile, false},
		{"socket", io.ErrUnexpectedEOF, errors.ErrorTypeConnection, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "list", "/data")
			assert.Equal(t, tt.want, errors.TypeOf(err))
			assert.Equal(t, tt.retryable, errors.IsRetryable(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPrefixes(t *testing.T) {
	assert.Equal(t, []string{"/a", "/a/b", "/a/b/c"}, prefixes("/a/b/c/"))
	assert.Nil(t, prefixes("/"))
}

func TestToEntries(t *testing.T) {
	now := time.Now()
	entries := toEntries("/data", []*ftp.Entry{
		{Name: ".", Type: ftp.EntryTypeFolder},
		{Name: "..", Type: ftp.EntryTypeFolder},
		{Name: "a.csv", Type: ftp.EntryTypeFile, Size: 12, Time: now},
		{Name: "sub", Type: ftp.EntryTypeFolder},
		{Name: "link.csv", Type: ftp.EntryTypeLink, Target: "a.csv"},
		{Name: "linkdir", Type: ftp.EntryTypeLink, Target: "sub"},
	})

	if assert.Len(t, entries, 2) {
		assert.Equal(t, "/data/a.csv", entries[0].Path)
		assert.EqualValues(t, 12, entries[0].Size)
		assert.Equal(t, now, entries[0].ModTime)
		assert.Equal(t, "/data/sub", entries[1].Path)
		assert.True(t, entries[1].IsDir)
	}
}
