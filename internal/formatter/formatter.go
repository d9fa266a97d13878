// package formatter renders band listings as CSV, Markdown, plain text, or JSON and reads
// CSV and JSON band files back for import
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the supported export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

var csvHeaders = []string{"id", "name", "slug", "city", "region", "genres", "website", "instagram", "spotify", "youtube", "photo_url"}

// Extension returns the file extension for format, without the dot.
func Extension(format string) string {
	if format == FormatMarkdown {
		return "md"
	}
	return format
}

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, s, strings.Join(Formats, ", "))
}

// BandsToCSV writes one row per band. Genres are joined with ", ".
func BandsToCSV(bands []models.Band) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range bands {
		record := []string{
			b.ID,
			b.Name,
			b.Slug,
			b.City,
			string(b.Region),
			strings.Join(b.Genres, ", "),
			b.Links.Website,
			b.Links.Instagram,
			b.Links.Spotify,
			b.Links.YouTube,
			b.PhotoURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// BandsToMarkdown renders bands grouped by region, in region display order. Bands with
// no region are listed last.
func BandsToMarkdown(title string, bands []models.Band) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Bands**: %d\n\n", len(bands))

	groups := make(map[models.Region][]models.Band)
	for _, b := range bands {
		groups[b.Region] = append(groups[b.Region], b)
	}

	order := append(append([]models.Region{}, models.Regions...), "")
	for _, region := range order {
		group := groups[region]
		if len(group) == 0 {
			continue
		}
		heading := string(region)
		if heading == "" {
			heading = "Unspecified"
		}
		fmt.Fprintf(&buf, "## %s\n\n", heading)
		for _, b := range group {
			buf.WriteString(markdownLine(b))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func markdownLine(b models.Band) string {
	var line strings.Builder
	line.WriteString("- **" + b.Name + "**")
	if b.City != "" {
		line.WriteString(", " + b.City)
	}
	if len(b.Genres) > 0 {
		line.WriteString(" (" + strings.Join(b.Genres, ", ") + ")")
	}

	r := links.Derive(b.Links)
	var refs []string
	if r.Website != "" {
		refs = append(refs, "[Website]("+r.Website+")")
	}
	if r.Instagram != "" {
		refs = append(refs, "[Instagram "+r.InstagramLabel+"]("+r.Instagram+")")
	}
	if r.Spotify != "" {
		refs = append(refs, "[Spotify]("+r.Spotify+")")
	}
	if r.YouTube != "" {
		refs = append(refs, "[YouTube]("+r.YouTube+")")
	}
	if len(refs) > 0 {
		line.WriteString(": " + strings.Join(refs, " · "))
	}
	line.WriteString("\n")
	return line.String()
}

// BandsToText renders a numbered list, one band per line.
func BandsToText(bands []models.Band) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Bands: %d\n\n", len(bands))
	for i, b := range bands {
		place := strings.Join(nonEmpty(b.City, string(b.Region)), ", ")
		if place != "" {
			place = " (" + place + ")"
		}
		fmt.Fprintf(&buf, "%d. %s%s\n", i+1, b.Name, place)
	}

	return buf.Bytes(), nil
}

// BandsToJSON renders an indented JSON array.
func BandsToJSON(bands []models.Band) ([]byte, error) {
	if bands == nil {
		bands = []models.Band{}
	}
	data, err := json.MarshalIndent(bands, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bands: %w", err)
	}
	return append(data, '\n'), nil
}

// Render dispatches to the renderer for format.
func Render(format, title string, bands []models.Band) ([]byte, error) {
	switch format {
	case FormatCSV:
		return BandsToCSV(bands)
	case FormatMarkdown:
		return BandsToMarkdown(title, bands)
	case FormatText:
		return BandsToText(bands)
	case FormatJSON:
		return BandsToJSON(bands)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
}

// Write renders bands to w.
func Write(w io.Writer, format, title string, bands []models.Band) error {
	data, err := Render(format, title, bands)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}

// WriteFile renders bands into path and returns the path written.
func WriteFile(path, format, title string, bands []models.Band) (string, error) {
	data, err := Render(format, title, bands)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ParseCSV reads band rows. Columns are matched by header name, case-insensitively, in any
// order; a name column is required and unknown columns are ignored. Genres split on commas.
func ParseCSV(r io.Reader) ([]models.BandInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", shared.ErrInvalidInput, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("%w: CSV has no name column", shared.ErrInvalidInput)
	}

	var out []models.BandInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if get("name") == "" && strings.TrimSpace(strings.Join(record, "")) == "" {
			continue
		}
		out = append(out, models.BandInput{
			Name:   get("name"),
			City:   get("city"),
			Region: get("region"),
			Genres: models.SplitGenres(get("genres")),
			Links: links.Set{
				Website:   get("website"),
				Instagram: get("instagram"),
				Spotify:   get("spotify"),
				YouTube:   get("youtube"),
			},
			PhotoURL: get("photo_url"),
		})
	}
	return out, nil
}

// ParseJSON reads a JSON array of band objects.
func ParseJSON(r io.Reader) ([]models.BandInput, error) {
	var out []models.BandInput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", shared.ErrInvalidInput, err)
	}
	return out, nil
}

// Parse reads an import file in format (csv or json).
func Parse(format string, r io.Reader) ([]models.BandInput, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatJSON:
		return ParseJSON(r)
	}
	return nil, fmt.Errorf("%w: cannot import %s", shared.ErrInvalidArgument, format)
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
