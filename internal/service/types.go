package service

import (
	"time"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
)

// Status classifies the outcome for one file in a batch.
type Status string

const (
	StatusClean       Status = "clean"
	StatusFound       Status = "found"
	StatusUnsupported Status = "unsupported"
	StatusError       Status = "error"
)

// FileReport is the outcome for one file.
type FileReport struct {
	Path     string           `json:"path" yaml:"path"`
	Format   string           `json:"format,omitempty" yaml:"format,omitempty"`
	Status   Status           `json:"status" yaml:"status"`
	Findings []detect.Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary counts files per status plus the total number of findings.
type Summary struct {
	Files       int `json:"files" yaml:"files"`
	Clean       int `json:"clean" yaml:"clean"`
	Found       int `json:"found" yaml:"found"`
	Unsupported int `json:"unsupported" yaml:"unsupported"`
	Errors      int `json:"errors" yaml:"errors"`
	Findings    int `json:"findings" yaml:"findings"`
}

// Report is the result of one batch scan. Files are sorted by path.
type Report struct {
	ID        string       `json:"id" yaml:"id"`
	StartedAt time.Time    `json:"started_at" yaml:"started_at"`
	Duration  string       `json:"duration" yaml:"duration"`
	Root      string       `json:"root,omitempty" yaml:"root,omitempty"`
	Files     []FileReport `json:"files" yaml:"files"`
	Summary   Summary      `json:"summary" yaml:"summary"`
}

// HasFindings reports whether any file contained hidden text.
func (r *Report) HasFindings() bool {
	return r.Summary.Found > 0
}

func summarize(files []FileReport) Summary {
	s := Summary{Files: len(files)}
	for _, f := range files {
		switch f.Status {
		case StatusClean:
			s.Clean++
		case StatusFound:
			s.Found++
		case StatusUnsupported:
			s.Unsupported++
		case StatusError:
			s.Errors++
		}
		s.Findings += len(f.Findings)
	}
	return s
}
