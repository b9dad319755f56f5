package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
	"github.com/a3tai/mcp-injection-checker/internal/visibility"
)

// MaxOpacity is the highest /CA or /ca value treated as invisible.
const MaxOpacity = 0.07

const (
	excerptLimit     = 15
	renderModeNote   = "text rendering mode 3 (glyphs not painted)"
	javaScriptTarget = "document JavaScript"
	javaScriptNote   = "embedded JavaScript action"
	stringTarget     = "content stream string"

	// literalLimit bounds a literal string body in raw bytes.
	literalLimit = 120
)

var (
	opacityPattern    = regexp.MustCompile(`/(?:CA|ca)\s+(\d*\.?\d+)`)
	renderModePattern = regexp.MustCompile(`\b3\s+Tr\b`)
	javaScriptPattern = regexp.MustCompile(`/S\s*/JavaScript\b|/JavaScript\s*<<`)
)

var utf16BOM = []byte{0xFE, 0xFF}

type located struct {
	offset  int
	finding detect.Finding
}

// markerFindings returns opacity and render-mode signals merged in offset
// order. prefix is prepended to every "offset N" location.
func markerFindings(data []byte, prefix string) []detect.Finding {
	var hits []located

	for _, m := range opacityPattern.FindAllSubmatchIndex(data, -1) {
		raw := string(data[m[2]:m[3]])
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value > MaxOpacity {
			continue
		}
		excerpt := data[m[0]:m[1]]
		if len(excerpt) > excerptLimit {
			excerpt = excerpt[:excerptLimit]
		}
		hits = append(hits, located{offset: m[0], finding: detect.Finding{
			Location: fmt.Sprintf("%soffset %d", prefix, m[0]),
			Snippet:  fmt.Sprintf("opacity %s (%s)", raw, strings.ToValidUTF8(string(excerpt), "")),
		}})
	}

	for _, m := range renderModePattern.FindAllIndex(data, -1) {
		hits = append(hits, located{offset: m[0], finding: detect.Finding{
			Location: fmt.Sprintf("%soffset %d", prefix, m[0]),
			Snippet:  renderModeNote,
		}})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	findings := make([]detect.Finding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, h.finding)
	}
	return findings
}

// javaScriptFinding reports at most one embedded JavaScript action.
func javaScriptFinding(data []byte) []detect.Finding {
	if !javaScriptPattern.Match(data) {
		return nil
	}
	return []detect.Finding{{Location: javaScriptTarget, Snippet: javaScriptNote}}
}

// stringFindings reports literal strings carrying invisible code points.
func stringFindings(data []byte, location string) []detect.Finding {
	var findings []detect.Finding
	for _, body := range literalStrings(data) {
		text := decodeLiteral(body)
		if !visibility.ContainsInvisible(text) {
			continue
		}
		findings = append(findings, detect.Finding{
			Location: location,
			Snippet:  detect.Head(text, detect.SnippetLimit),
		})
	}
	return findings
}

// literalStrings returns the bodies of parenthesised strings holding 1 to
// literalLimit bytes up to the first closing parenthesis. Nesting and
// escapes are not interpreted. A rejected opening parenthesis does not end
// the search, so a shorter string opened inside it is still found.
func literalStrings(data []byte) [][]byte {
	var bodies [][]byte
	for i := 0; i < len(data); {
		open := bytes.IndexByte(data[i:], '(')
		if open < 0 {
			break
		}
		start := i + open + 1
		n := bytes.IndexByte(data[start:], ')')
		if n < 0 {
			break
		}
		if n == 0 || n > literalLimit {
			i = start
			continue
		}
		bodies = append(bodies, data[start:start+n])
		i = start + n + 1
	}
	return bodies
}

// decodeLiteral decodes string bytes permissively: UTF-16BE when a byte
// order mark leads, otherwise UTF-8 with invalid bytes dropped.
func decodeLiteral(raw []byte) string {
	if bytes.HasPrefix(raw, utf16BOM) {
		dec := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	}
	return strings.ToValidUTF8(string(raw), "")
}

// rawFindings applies every byte-level signal to the whole file.
func rawFindings(data []byte) []detect.Finding {
	findings := markerFindings(data, "")
	findings = append(findings, javaScriptFinding(data)...)
	findings = append(findings, stringFindings(data, stringTarget)...)
	return findings
}
