package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
	"github.com/a3tai/mcp-injection-checker/internal/detect/pdf"
)

type stubScanner struct {
	format string
	calls  int
}

func (s *stubScanner) Scan(string) (detect.Result, error) {
	s.calls++
	return detect.NewResult([]detect.Finding{{Location: "stub", Snippet: s.format}}), nil
}

func (s *stubScanner) Format() string { return s.format }

func TestDefaultExtensions(t *testing.T) {
	d := Default(pdf.DefaultOptions())
	assert.Equal(t, []string{".docx", ".pdf", ".pptx"}, d.Extensions())
}

func TestLookup(t *testing.T) {
	d := Default(pdf.DefaultOptions())

	tests := []struct {
		path   string
		format string
	}{
		{"report.docx", "docx"},
		{"deck.PPTX", "pptx"},
		{"/tmp/scan.Pdf", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, err := d.Lookup(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, s.Format())
			assert.True(t, d.Supports(tt.path))
			assert.Equal(t, tt.format, d.Format(tt.path))
		})
	}
}

func TestUnsupportedIsNeverScanned(t *testing.T) {
	stub := &stubScanner{format: "stub"}
	d := New(map[string]detect.Scanner{"STUB": stub})

	for _, path := range []string{"notes.txt", "archive.docx.bak", "README", "slides.ppt"} {
		_, err := d.Scan(path)
		assert.ErrorIs(t, err, detect.ErrUnsupportedFormat, path)
		assert.False(t, d.Supports(path))
		assert.Empty(t, d.Format(path))
	}
	assert.Zero(t, stub.calls)

	res, err := d.Scan("x.stub")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 1, stub.calls)
}

func TestNewNormalizesBindings(t *testing.T) {
	d := New(map[string]detect.Scanner{
		"DOCX":  &stubScanner{format: "a"},
		" .Pdf": &stubScanner{format: "b"},
		".none": nil,
	})
	assert.Equal(t, []string{".docx", ".pdf"}, d.Extensions())
}

func TestScanUnsupportedDoesNotTouchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("hidden\u200btext"), 0o600))

	_, err := Default(pdf.DefaultOptions()).Scan(path)
	assert.ErrorIs(t, err, detect.ErrUnsupportedFormat)
}
