// Package restore rebuilds the live selection store from saved references
// after a page load.
package restore

import (
	"log/slog"

	"github.com/chrisuehlinger/multiselect/selection"
)

// Report summarizes one restoration pass.
type Report struct {
	Total        int
	Highlighted  int
	Unresolved   int
	Unmarkable   int
	TextMismatch int
}

// Restored returns the number of records given back a marker.
func (r Report) Restored() int {
	return r.Highlighted
}

// Pipeline resolves saved references and re-marks them.
type Pipeline struct {
	codec  selection.Codec
	marker selection.Marker
	store  *selection.Store
	logger *slog.Logger
}

// NewPipeline creates a pipeline that fills store. A nil logger uses
// slog.Default().
func NewPipeline(codec selection.Codec, marker selection.Marker, store *selection.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		codec:  codec,
		marker: marker,
		store:  store,
		logger: logger.With("component", "restore"),
	}
}

// RestoreAll clears every existing marker, then resolves and marks each saved
// entry in order. Entries that fail to resolve or mark are kept without a
// marker, so the rebuilt store always has one record per entry, in input
// order. Failures are logged, never returned.
func (p *Pipeline) RestoreAll(saved []selection.Saved) Report {
	p.marker.ClearAll()

	report := Report{Total: len(saved)}
	records := make([]selection.Record, 0, len(saved))
	for i, entry := range saved {
		rec := selection.Record{Text: entry.Text, Ref: entry.Reference}

		r, err := p.codec.Resolve(entry.Reference)
		if err != nil {
			report.Unresolved++
			p.logger.Debug("could not resolve saved selection", "index", i, "ref", entry.Reference, "error", err)
			records = append(records, rec)
			continue
		}
		if got := r.ToString(); got != entry.Text {
			report.TextMismatch++
			p.logger.Warn("restored text differs from saved text", "index", i, "want", entry.Text, "got", got)
		}

		h, err := p.marker.Mark(r)
		if err != nil {
			report.Unmarkable++
			p.logger.Debug("could not mark saved selection", "index", i, "ref", entry.Reference, "error", err)
			records = append(records, rec)
			continue
		}
		rec.Marker = h
		report.Highlighted++
		records = append(records, rec)
	}

	p.store.Adopt(records)
	p.logger.Info("restored selections",
		"total", report.Total,
		"highlighted", report.Highlighted,
		"unresolved", report.Unresolved,
		"unmarkable", report.Unmarkable)
	return report
}
