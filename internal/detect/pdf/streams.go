package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
)

// decodedStream is the plain content of one filtered stream object.
type decodedStream struct {
	objNr   int
	content []byte
}

// pdfcpu otherwise installs its configuration below the user config
// directory on first use and exits the process when that fails.
var disableConfigDir sync.Once

// decodeStreams reads data with pdfcpu in relaxed mode and returns the
// decoded content of every filtered, non-image stream in object order.
func decodeStreams(data []byte) (streams []decodedStream, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while decoding streams: %v", r)
		}
	}()

	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	objNrs := make([]int, 0, len(ctx.XRefTable.Table))
	for objNr := range ctx.XRefTable.Table {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	for _, objNr := range objNrs {
		entry := ctx.XRefTable.Table[objNr]
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok || len(sd.FilterPipeline) == 0 || skipStream(sd) {
			continue
		}
		if sd.Content == nil {
			if sd.Raw == nil {
				continue
			}
			// partial decode loss is tolerated
			if err := sd.Decode(); err != nil {
				continue
			}
		}
		if len(sd.Content) > 0 {
			streams = append(streams, decodedStream{objNr: objNr, content: sd.Content})
		}
	}
	return streams, nil
}

func skipStream(sd types.StreamDict) bool {
	if st := sd.Subtype(); st != nil && *st == "Image" {
		return true
	}
	if t := sd.Type(); t != nil && *t == "XRef" {
		return true
	}
	return false
}

// streamFindings applies the marker and string signals to decoded streams.
func streamFindings(streams []decodedStream) []detect.Finding {
	var findings []detect.Finding
	for _, s := range streams {
		prefix := fmt.Sprintf("object %d ", s.objNr)
		findings = append(findings, markerFindings(s.content, prefix)...)
		findings = append(findings, stringFindings(s.content, fmt.Sprintf("object %d string", s.objNr))...)
	}
	return findings
}
