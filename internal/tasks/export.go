package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/mibands/internal/formatter"
	"github.com/desertthunder/mibands/internal/models"
)

// ManifestName is the file written next to exported band files.
const ManifestName = "export_manifest.json"

// ExportOpts configures [Engine.Export].
type ExportOpts struct {
	Format    string // json, csv, markdown, txt (default: json)
	OutputDir string // Output directory (default: bands_export_{epoch})
	Region    string // Only export this region
	ByRegion  bool   // One file per region instead of a single file
	Title     string // Markdown heading (default: Michigan Bands)
}

// ExportFile is one written file.
type ExportFile struct {
	Region string `json:"region,omitempty"`
	Path   string `json:"path"`
	Count  int    `json:"count"`
}

// ExportResult is also the manifest body.
type ExportResult struct {
	Format       string       `json:"format"`
	OutputDir    string       `json:"output_dir"`
	TotalBands   int          `json:"total_bands"`
	Files        []ExportFile `json:"files"`
	ExportedAt   time.Time    `json:"exported_at"`
	ManifestPath string       `json:"-"`
}

// Export writes the directory to OutputDir in the requested format and finishes with a manifest.
func (e *Engine) Export(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("bands_export_%d", time.Now().Unix())
	}
	if opts.Title == "" {
		opts.Title = "Michigan Bands"
	}

	e.sendProgress(progress, loadingBandsUpdate())
	bands, err := e.allBands(ctx, opts.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to load bands: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	groups := exportGroups(bands, opts)
	result := &ExportResult{
		Format:     format,
		OutputDir:  opts.OutputDir,
		TotalBands: len(bands),
		Files:      make([]ExportFile, 0, len(groups)),
		ExportedAt: time.Now().UTC(),
	}

	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path := filepath.Join(opts.OutputDir, g.name+"."+formatter.Extension(format))
		title := opts.Title
		if g.region != "" {
			title = fmt.Sprintf("%s: %s", opts.Title, g.region)
		}
		written, err := formatter.WriteFile(path, format, title, g.bands)
		if err != nil {
			return result, err
		}
		file := ExportFile{Region: g.region, Path: written, Count: len(g.bands)}
		result.Files = append(result.Files, file)
		e.sendProgress(progress, exportFileUpdate(i+1, len(groups), file))
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("export finished", "bands", result.TotalBands, "files", len(result.Files), "dir", opts.OutputDir)
	return result, nil
}

type exportGroup struct {
	name   string
	region string
	bands  []models.Band
}

// exportGroups splits bands into files. Empty regions produce no file; bands with no
// region go to "unspecified".
func exportGroups(bands []models.Band, opts ExportOpts) []exportGroup {
	if !opts.ByRegion {
		return []exportGroup{{name: "bands", region: opts.Region, bands: bands}}
	}

	byRegion := make(map[models.Region][]models.Band)
	for _, b := range bands {
		byRegion[b.Region] = append(byRegion[b.Region], b)
	}

	var groups []exportGroup
	for _, r := range append(append([]models.Region{}, models.Regions...), "") {
		if len(byRegion[r]) == 0 {
			continue
		}
		name := "unspecified"
		if r != "" {
			name = models.Slugify(string(r))
		}
		groups = append(groups, exportGroup{name: name, region: string(r), bands: byRegion[r]})
	}
	return groups
}
