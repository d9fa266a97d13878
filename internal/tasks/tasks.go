package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/preview"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 16
	defaultRateLimit = 2.0
)

// BandStore is the subset of [repositories.BandRepository] the engine needs.
type BandStore interface {
	List(ctx context.Context, opts repositories.ListOptions) ([]models.Band, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Band, error)
	Create(ctx context.Context, b *models.Band) error
}

// Engine runs bulk band operations.
type Engine struct {
	bands    BandStore
	previews preview.Source
	logger   *log.Logger
}

// NewEngine creates a new [Engine]. previews may be nil when only import and export are used.
func NewEngine(bands BandStore, previews preview.Source, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{bands: bands, previews: previews, logger: logger}
}

// allBands loads every band, optionally restricted to one region, ordered by name.
func (e *Engine) allBands(ctx context.Context, region string) ([]models.Band, error) {
	if e.bands == nil {
		return nil, fmt.Errorf("%w: band store not initialized", shared.ErrServiceUnavailable)
	}
	if region == models.AllRegions {
		region = ""
	}
	bands, _, err := e.bands.List(ctx, repositories.ListOptions{Region: region})
	if err != nil {
		return nil, err
	}
	return bands, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func clampWorkers(n int) int {
	if n <= 0 {
		return defaultWorkers
	}
	return min(n, maxWorkers)
}
