package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/formatter"
	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
	"github.com/desertthunder/mibands/internal/tasks"
)

// BandsList prints bands ordered by name.
func (r *Runner) BandsList(ctx context.Context, cmd *cli.Command) error {
	region, err := regionFlag(cmd.String("region"))
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	bands, total, err := repositories.NewBandRepository(db).List(ctx, repositories.ListOptions{
		Region: region,
		Q:      cmd.String("query"),
		Limit:  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(bands, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Bands (%d of %d)", len(bands), total))
	for _, b := range bands {
		place := strings.Join(nonEmpty(b.City, string(b.Region)), ", ")
		r.writePlain("%-32s %-28s %s\n", b.Name, place, b.Slug)
	}
	return nil
}

// BandsShow prints one band looked up by slug, falling back to id.
func (r *Runner) BandsShow(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("band")
	if key == "" {
		return fmt.Errorf("%w: band slug or id", shared.ErrMissingArgument)
	}

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	b, err := repositories.NewBandRepository(db).Find(ctx, key)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(b, true)
	}

	r.writePlainHeader(b.Name)
	r.writePlain("Slug:      %s\n", b.Slug)
	r.writePlain("ID:        %s\n", b.ID)
	if b.City != "" {
		r.writePlain("City:      %s\n", b.City)
	}
	if b.Region != "" {
		r.writePlain("Region:    %s\n", b.Region)
	}
	if len(b.Genres) > 0 {
		r.writePlain("Genres:    %s\n", strings.Join(b.Genres, ", "))
	}

	d := links.Derive(b.Links)
	if d.Website != "" {
		r.writePlain("Website:   %s\n", d.Website)
	}
	if d.Instagram != "" {
		r.writePlain("Instagram: %s (%s)\n", d.InstagramLabel, d.Instagram)
	}
	if d.Spotify != "" {
		r.writePlain("Spotify:   %s\n", d.Spotify)
	}
	if d.YouTube != "" {
		r.writePlain("YouTube:   %s\n", d.YouTube)
	}
	return nil
}

// BandsExport writes the directory to disk through the tasks engine.
func (r *Runner) BandsExport(ctx context.Context, cmd *cli.Command) error {
	region, err := regionFlag(cmd.String("region"))
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.logProgress(progress, done)

	result, err := r.engine(db).Export(ctx, progress, tasks.ExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		Region:    region,
		ByRegion:  cmd.Bool("by-region"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d bands to %s\n", result.TotalBands, result.OutputDir)
	for _, f := range result.Files {
		r.writePlain("  %s (%d)\n", f.Path, f.Count)
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// BandsImport reads a CSV or JSON file and creates a band per valid row.
func (r *Runner) BandsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: import file path", shared.ErrMissingArgument)
	}

	format := cmd.String("format")
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	format, err := formatter.ParseFormat(format)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	inputs, err := formatter.Parse(format, f)
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	var ownerID string
	if email := cmd.String("owner"); email != "" {
		u, err := repositories.NewUserRepository(db).GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("owner %s: %w", email, err)
		}
		ownerID = u.ID
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.logProgress(progress, done)

	summary, err := r.engine(db).Import(ctx, progress, inputs, tasks.ImportOpts{
		OwnerID:      ownerID,
		DryRun:       cmd.Bool("dry-run"),
		SkipExisting: cmd.Bool("skip-existing"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	for _, row := range summary.Rows {
		if row.Error != nil {
			r.writePlain("  row %d %q: %s: %v\n", row.Row, row.Name, row.Status, row.Error)
		}
	}
	if cmd.Bool("dry-run") {
		r.writePlain("Dry run: %d valid, %d skipped, %d invalid of %d rows\n", summary.Valid, summary.Skipped, summary.Invalid, summary.Total)
		return nil
	}
	r.writePlain("✓ Imported %d bands (%d skipped, %d invalid, %d failed) of %d rows\n",
		summary.Created, summary.Skipped, summary.Invalid, summary.Failed, summary.Total)
	return nil
}

// regionFlag validates a --region value; "" and "All Regions" mean no filter.
func regionFlag(s string) (string, error) {
	if s == "" || s == models.AllRegions {
		return "", nil
	}
	region, ok := models.ParseRegion(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown region %q (want one of %s)", shared.ErrInvalidArgument, s, strings.Join(models.RegionNames(), ", "))
	}
	return string(region), nil
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
