// Package pipeline runs the ingestion stages: channel listing, subtitle
// download, chunking and index building. Every stage records per-item
// outcomes in a Report instead of aborting on the first bad item.
package pipeline

import (
	"fmt"
	"io"

	"github.com/DreamCats/tubeindex/internal/subtitle"
)

// maxListedFailures bounds the failures printed by Report.PrintSummary.
const maxListedFailures = 10

// Failure describes one item that did not make it through a stage.
type Failure struct {
	ID     string `json:"video_id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Report summarizes one stage run.
type Report struct {
	Stage     string
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	// Failures lists skipped and failed items in processing order.
	Failures []Failure
}

func newReport(stage string) *Report {
	return &Report{Stage: stage}
}

func (r *Report) success() {
	r.Succeeded++
}

func (r *Report) skip(id, title, reason string) {
	r.Skipped++
	r.Failures = append(r.Failures, Failure{ID: id, Title: title, Reason: reason})
}

func (r *Report) fail(id, title string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{ID: id, Title: title, Reason: err.Error()})
}

// SuccessRate is Succeeded/Total as a percentage; 0 when Total is 0.
func (r *Report) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Total) * 100
}

// PrintSummary writes the counts and the first failures to w.
func (r *Report) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n%s finished\n", r.Stage)
	fmt.Fprintf(w, "  succeeded: %d\n", r.Succeeded)
	fmt.Fprintf(w, "  skipped:   %d\n", r.Skipped)
	fmt.Fprintf(w, "  failed:    %d\n", r.Failed)
	fmt.Fprintf(w, "  total:     %d (%.1f%% succeeded)\n", r.Total, r.SuccessRate())

	if len(r.Failures) == 0 {
		return
	}
	fmt.Fprintln(w, "\nNot processed:")
	for i, f := range r.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Failures)-maxListedFailures)
			break
		}
		label := f.ID
		if f.Title != "" {
			label = subtitle.Truncate(f.Title, 50)
		}
		fmt.Fprintf(w, "  %d. %s - %s\n", i+1, label, f.Reason)
	}
}
