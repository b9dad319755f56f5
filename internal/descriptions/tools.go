package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	ScanFileDescription = `Check a single DOCX, PPTX or PDF document for hidden text that could carry a prompt injection.

**When to use:** Before handing a user-supplied document to a language model, or when a document behaves strangely once summarized.

**Why it's useful:** Finds text a human reader never sees: vanished or hidden runs, text a few points tall, text whose color matches the background, invisible Unicode characters, hidden slides, customXml payloads, transparent or invisible PDF text and embedded JavaScript.

**Examples:**
• Vet an upload: "Scan contract.docx before summarizing it"
• Investigate a deck: "Check quarterly.pptx for hidden slides or white-on-white text"
• Screen a PDF: "Scan invoice.pdf for invisible text render modes"

**Common workflows:**
1. Ingestion gate: scan_file → if hidden text is found → reject or quarantine the document
2. Review: scan_file → read each location and snippet → decide whether the text is benign

**Best practices:** A clean result only means none of the heuristics fired. Paths outside the configured directory are rejected.`

	ScanDirectoryDescription = `Scan every supported document in a directory and report findings per file.

**When to use:** Auditing a shared folder, a mailbox export or a document corpus before indexing it.

**Why it's useful:** Files are scanned in parallel; unreadable or unsupported files are listed without stopping the batch.

**Examples:**
• Audit a corpus: "Scan the uploads directory recursively"
• Quick check: "Scan only the top level of the default directory"

**Common workflows:**
1. Corpus hygiene: scan_directory → collect files marked [!] → scan_file each one for detail
2. Monitoring: scan_directory on a schedule → alert when the summary reports hidden text

**Best practices:** Leave directory empty to scan the configured default directory. Set recursive to false for large trees when only the top level matters.`

	ScannerInfoDescription = `Get server status, supported document formats and the heuristics applied to each.

**When to use:** First contact with the server, or to confirm which file extensions will be scanned.

**Why it's useful:** Lists the default directory, the size limit, worker count and every detection signal so results can be interpreted correctly.

**Best practices:** Call this first to learn the default directory before using scan_directory.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"scan_file":      ScanFileDescription,
	"scan_directory": ScanDirectoryDescription,
	"scanner_info":   ScannerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
