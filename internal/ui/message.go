package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBandsLoaded MsgKind = iota
	MsgPreviewFetched
	MsgProgressUpdate
	MsgWarmComplete
	MsgBrowserOpened
)

type bandsLoaded struct {
	bands []models.Band
	err   error
}

type previewFetched struct {
	bandID  string
	preview *models.LinkPreview
}

type warmComplete struct {
	summary *tasks.WarmSummary
	err     error
}

// bandsLoadedMsg is the constructor for [MsgBandsLoaded]
func bandsLoadedMsg(bands []models.Band, err error) Msg {
	return Msg{kind: MsgBandsLoaded, data: bandsLoaded{bands, err}}
}

// previewFetchedMsg is the constructor for [MsgPreviewFetched]
func previewFetchedMsg(bandID string, p *models.LinkPreview) Msg {
	return Msg{kind: MsgPreviewFetched, data: previewFetched{bandID, p}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// warmCompleteMsg is the constructor for [MsgWarmComplete]
func warmCompleteMsg(summary *tasks.WarmSummary, err error) Msg {
	return Msg{kind: MsgWarmComplete, data: warmComplete{summary, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
