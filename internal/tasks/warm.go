package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/shared"
)

// WarmOpts configures [Engine.WarmPreviews].
type WarmOpts struct {
	Region    string  // Only warm bands in this region
	Workers   int     // Concurrent fetchers (default: 4, max: 16)
	RateLimit float64 // Fetches per second (default: 2)
}

// WarmResult is the outcome of a single website fetch.
type WarmResult struct {
	URL   string `json:"url"`
	Band  string `json:"band"`
	OK    bool   `json:"ok"`
	Title string `json:"title,omitempty"`
}

// WarmSummary totals a warm run.
type WarmSummary struct {
	Bands    int          `json:"bands"`
	Websites int          `json:"websites"`
	Cached   int          `json:"cached"`
	Missing  int          `json:"missing"`
	Results  []WarmResult `json:"results"`
}

type warmJob struct {
	url  string
	band string
}

// WarmPreviews fetches the preview of every distinct band website through the engine's
// preview source. Bands sharing a website are fetched once.
func (e *Engine) WarmPreviews(ctx context.Context, progress chan<- ProgressUpdate, opts WarmOpts) (*WarmSummary, error) {
	if e.previews == nil {
		return nil, fmt.Errorf("%w: preview source not initialized", shared.ErrServiceUnavailable)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	opts.Workers = clampWorkers(opts.Workers)

	e.sendProgress(progress, loadingBandsUpdate())
	bands, err := e.allBands(ctx, opts.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to load bands: %w", err)
	}

	seen := make(map[string]bool)
	var queue []warmJob
	for _, b := range bands {
		website, ok := links.Normalize(b.Links.Website)
		if !ok || seen[website] {
			continue
		}
		seen[website] = true
		queue = append(queue, warmJob{url: website, band: b.Name})
	}

	summary := &WarmSummary{Bands: len(bands), Websites: len(queue), Results: make([]WarmResult, 0, len(queue))}
	if len(queue) == 0 {
		return summary, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan warmJob, len(queue))
	results := make(chan WarmResult, len(queue))

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go e.warmWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, job := range queue {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		summary.Results = append(summary.Results, res)
		if res.OK {
			summary.Cached++
		} else {
			summary.Missing++
		}
		e.sendProgress(progress, previewFetchedUpdate(len(summary.Results), len(queue), res))
	}

	e.logger.Info("previews warmed", "websites", summary.Websites, "cached", summary.Cached, "missing", summary.Missing)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *Engine) warmWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan warmJob, results chan<- WarmResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := WarmResult{URL: job.url, Band: job.band}
		if p := e.previews.Fetch(ctx, job.url); p != nil {
			res.OK = true
			res.Title = p.Title
		}
		results <- res
	}
}
