package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/mibands/internal/models"
)

var (
	_ list.Item = bandItem{}
)

// bandItem wraps [models.Band] to implement [list.Item].
type bandItem struct {
	band models.Band
}

func (i bandItem) FilterValue() string { return i.band.Name }
func (i bandItem) Title() string       { return i.band.Name }
func (i bandItem) Description() string {
	var parts []string
	if place := strings.Join(nonEmpty(i.band.City, string(i.band.Region)), ", "); place != "" {
		parts = append(parts, place)
	}
	if len(i.band.Genres) > 0 {
		parts = append(parts, strings.Join(i.band.Genres, ", "))
	}
	return strings.Join(parts, " • ")
}

func bandItems(bands []models.Band) []list.Item {
	items := make([]list.Item, len(bands))
	for i, b := range bands {
		items[i] = bandItem{band: b}
	}
	return items
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
