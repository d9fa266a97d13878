package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/tasks"
)

// PreviewsWarm fills the preview cache for every band website.
func (r *Runner) PreviewsWarm(ctx context.Context, cmd *cli.Command) error {
	region, err := regionFlag(cmd.String("region"))
	if err != nil {
		return err
	}

	opts := tasks.WarmOpts{
		Region:    region,
		Workers:   r.config.Tasks.Workers,
		RateLimit: r.config.Tasks.RateLimit,
	}
	if n := cmd.Int("workers"); n > 0 {
		opts.Workers = n
	}
	if rate := cmd.Float("rate"); rate > 0 {
		opts.RateLimit = rate
	}

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.logProgress(progress, done)

	summary, err := r.engine(db).WarmPreviews(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}
	r.writePlain("✓ Warmed %d of %d websites (%d bands, %d without a preview)\n",
		summary.Cached, summary.Websites, summary.Bands, summary.Missing)
	return nil
}

// PreviewsPurge deletes every cached preview.
func (r *Runner) PreviewsPurge(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := repositories.NewPreviewRepository(db).Purge(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("preview cache purged", "rows", n)
	return r.writePlain("✓ Removed %d cached previews\n", n)
}
