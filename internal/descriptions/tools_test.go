package descriptions

import (
	"strings"
	"testing"
)

func TestGetToolDescription(t *testing.T) {
	for _, name := range []string{"scan_file", "scan_directory", "scanner_info"} {
		desc := GetToolDescription(name)
		if !strings.Contains(desc, "**When to use:**") {
			t.Errorf("description for %s is missing usage guidance", name)
		}
	}

	if got := GetToolDescription("pdf_read_file"); got != "Tool description not available" {
		t.Errorf("unexpected description for unknown tool: %q", got)
	}
}

func TestGetAllToolNames(t *testing.T) {
	names := GetAllToolNames()
	want := []string{"scan_directory", "scan_file", "scanner_info"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", names, want)
	}
}
