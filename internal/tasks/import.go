package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mibands/internal/metrics"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

// ImportStatus describes what happened to one imported row.
type ImportStatus string

const (
	ImportCreated ImportStatus = "created"
	ImportSkipped ImportStatus = "skipped"
	ImportInvalid ImportStatus = "invalid"
	ImportFailed  ImportStatus = "failed"
	ImportValid   ImportStatus = "valid" // dry run only
)

// ImportOpts configures [Engine.Import].
type ImportOpts struct {
	OwnerID      string // Owner of created bands; empty for unowned
	DryRun       bool   // Validate without writing
	SkipExisting bool   // Skip rows whose slug is already taken
}

// ImportRowResult is the outcome of one row. Row is 1-based.
type ImportRowResult struct {
	Row    int          `json:"row"`
	Name   string       `json:"name"`
	Slug   string       `json:"slug,omitempty"`
	Status ImportStatus `json:"status"`
	Error  error        `json:"-"`
}

// ImportSummary totals an import run.
type ImportSummary struct {
	Total   int               `json:"total"`
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Invalid int               `json:"invalid"`
	Failed  int               `json:"failed"`
	Valid   int               `json:"valid,omitempty"`
	Rows    []ImportRowResult `json:"rows"`
}

// Import normalizes, validates and stores each input in order. A bad row is recorded and
// the run continues; only a cancelled context stops it early.
func (e *Engine) Import(ctx context.Context, progress chan<- ProgressUpdate, inputs []models.BandInput, opts ImportOpts) (*ImportSummary, error) {
	if e.bands == nil {
		return nil, fmt.Errorf("%w: band store not initialized", shared.ErrServiceUnavailable)
	}

	summary := &ImportSummary{Total: len(inputs), Rows: make([]ImportRowResult, 0, len(inputs))}
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := e.importRow(ctx, i+1, in, opts)
		switch res.Status {
		case ImportCreated:
			summary.Created++
		case ImportSkipped:
			summary.Skipped++
		case ImportInvalid:
			summary.Invalid++
		case ImportFailed:
			summary.Failed++
		case ImportValid:
			summary.Valid++
		}
		summary.Rows = append(summary.Rows, res)
		e.sendProgress(progress, importRowUpdate(i+1, len(inputs), res))
	}

	e.logger.Info("import finished",
		"total", summary.Total, "created", summary.Created, "skipped", summary.Skipped,
		"invalid", summary.Invalid, "failed", summary.Failed, "dry_run", opts.DryRun)
	return summary, nil
}

func (e *Engine) importRow(ctx context.Context, row int, in models.BandInput, opts ImportOpts) ImportRowResult {
	res := ImportRowResult{Row: row, Name: in.Name}

	b, err := in.Band(opts.OwnerID)
	if err != nil {
		res.Status, res.Error = ImportInvalid, err
		return res
	}
	res.Name, res.Slug = b.Name, b.Slug

	if opts.SkipExisting {
		_, err := e.bands.GetBySlug(ctx, b.Slug)
		switch {
		case err == nil:
			res.Status = ImportSkipped
			return res
		case !errors.Is(err, shared.ErrBandNotFound):
			res.Status, res.Error = ImportFailed, err
			return res
		}
	}

	if opts.DryRun {
		res.Status = ImportValid
		return res
	}

	err = e.bands.Create(ctx, b)
	metrics.RecordBandWrite("import", err)
	if err != nil {
		res.Status, res.Error = ImportFailed, err
		return res
	}
	res.Status = ImportCreated
	return res
}
