package detect

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult(t *testing.T) {
	t.Run("no findings", func(t *testing.T) {
		r := NewResult(nil)
		assert.False(t, r.Found)
		assert.NotNil(t, r.Findings)
		assert.Empty(t, r.Findings)
	})

	t.Run("with findings", func(t *testing.T) {
		r := NewResult([]Finding{{Location: "slide 1", Snippet: "x"}})
		assert.True(t, r.Found)
		assert.Len(t, r.Findings, 1)
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "hello", "hello"},
		{"exact limit", strings.Repeat("a", 40), strings.Repeat("a", 40)},
		{"one over", strings.Repeat("a", 41), strings.Repeat("a", 40) + " …+1 more characters"},
		{"multibyte", strings.Repeat("語", 45), strings.Repeat("語", 40) + " …+5 more characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in))
		})
	}
}

func TestHead(t *testing.T) {
	assert.Equal(t, "ab", Head("abc", 2))
	assert.Equal(t, "abc", Head("abc", 10))
	assert.Equal(t, "", Head("abc", 0))
	assert.Equal(t, "日本", Head("日本語", 2))
}

func TestScanError(t *testing.T) {
	err := Malformed("docx", "/tmp/a.docx", errors.New("zip: not a valid zip file"))

	require.ErrorIs(t, err, ErrMalformedInput)
	var se *ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/tmp/a.docx", se.Path)
	assert.Equal(t, "docx", se.Format)
	assert.Contains(t, err.Error(), "malformed input")
	assert.Contains(t, err.Error(), "not a valid zip file")

	failed := Failed("pdf", "/tmp/a.pdf", fs.ErrNotExist)
	assert.ErrorIs(t, failed, fs.ErrNotExist)
	assert.NotErrorIs(t, failed, ErrMalformedInput)
}
