package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/preview"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/search"
	"github.com/desertthunder/mibands/internal/shared"
	"github.com/desertthunder/mibands/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	WarmView
)

// BandLister loads the directory.
type BandLister interface {
	List(ctx context.Context, opts repositories.ListOptions) ([]models.Band, int, error)
}

// Options configures [NewModel]. Previews and Engine are optional; without them the
// detail view shows no preview and warming is disabled.
type Options struct {
	Bands    BandLister
	Previews preview.Source
	Engine   *tasks.Engine
	Warm     tasks.WarmOpts
	Open     func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	opts     Options
	view     ViewState
	width    int
	height   int
	bands    []models.Band
	shown    int
	region   int
	input    textinput.Model
	list     list.Model
	selected *models.Band
	preview  *models.LinkPreview
	loading  bool
	status   string
	progress tasks.ProgressUpdate
	updates  chan tasks.ProgressUpdate
	done     chan warmComplete
	warm     *tasks.WarmSummary
	warmErr  error
	err      error
	help     help.Model
	keys     keyMap
}

// regionChoices is the cycle order of the region selector.
var regionChoices = append([]string{models.AllRegions}, models.RegionNames()...)

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	input := textinput.New()
	input.Placeholder = "Search name, city, region or genre"
	input.Prompt = "/ "
	input.Focus()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.Title = "Michigan Bands"

	return &Model{
		ctx:   ctx,
		opts:  opts,
		view:  ListView,
		input: input,
		list:  l,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init loads every band from the store.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadBands())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-8, 4))
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case WarmView:
			return m.handleWarmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgBandsLoaded:
		data := msg.data.(bandsLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.bands = data.bands
		return m, m.refilter()

	case MsgPreviewFetched:
		data := msg.data.(previewFetched)
		if m.selected != nil && m.selected.ID == data.bandID {
			m.preview = data.preview
			m.loading = false
		}

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgWarmComplete:
		data := msg.data.(warmComplete)
		m.warm, m.warmErr = data.summary, data.err
		m.updates, m.done = nil, nil

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = err.Error()
		}
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		m.list.CursorUp()
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.list.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.enter):
		item, ok := m.list.SelectedItem().(bandItem)
		if !ok {
			return m, nil
		}
		b := item.band
		m.selected, m.preview, m.status = &b, nil, ""
		m.view = DetailView
		return m, m.fetchPreview(b)

	case key.Matches(msg, m.keys.nextRegion):
		m.region = (m.region + 1) % len(regionChoices)
		return m, m.refilter()

	case key.Matches(msg, m.keys.prevRegion):
		m.region = (m.region + len(regionChoices) - 1) % len(regionChoices)
		return m, m.refilter()

	case key.Matches(msg, m.keys.back):
		if m.input.Value() == "" {
			return m, tea.Quit
		}
		m.input.SetValue("")
		return m, m.refilter()

	case key.Matches(msg, m.keys.warm):
		if m.opts.Engine == nil {
			m.status = "preview warming is not available"
			return m, nil
		}
		m.view = WarmView
		m.warm, m.warmErr, m.progress = nil, nil, tasks.ProgressUpdate{}
		return m, m.startWarm()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return m, tea.Batch(cmd, m.refilter())
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		m.selected, m.preview, m.status = nil, nil, ""
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keys.open):
		if website, ok := links.Normalize(m.selected.Links.Website); ok {
			return m, m.openBrowser(website)
		}
		m.status = "no website"
	}
	return m, nil
}

func (m *Model) handleWarmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.updates != nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = ListView
	case msg.String() == "q":
		return m, tea.Quit
	}
	return m, nil
}

// Region returns the active region filter.
func (m *Model) Region() string {
	return regionChoices[m.region]
}

// Shown returns how many bands pass the current filters.
func (m *Model) Shown() int {
	return m.shown
}

// refilter narrows the loaded bands in memory and resets the selection to the top.
func (m *Model) refilter() tea.Cmd {
	filtered := search.Filter(m.bands, m.input.Value(), m.Region())
	m.shown = len(filtered)
	m.list.Title = fmt.Sprintf("Michigan Bands · %s · %d shown", m.Region(), m.shown)
	cmd := m.list.SetItems(bandItems(filtered))
	m.list.Select(0)
	return cmd
}

func (m *Model) loadBands() tea.Cmd {
	return func() tea.Msg {
		if m.opts.Bands == nil {
			return bandsLoadedMsg(nil, fmt.Errorf("%w: band store not initialized", shared.ErrServiceUnavailable))
		}
		bands, _, err := m.opts.Bands.List(m.ctx, repositories.ListOptions{})
		return bandsLoadedMsg(bands, err)
	}
}

func (m *Model) fetchPreview(b models.Band) tea.Cmd {
	website, ok := links.Normalize(b.Links.Website)
	if !ok || m.opts.Previews == nil {
		return nil
	}
	m.loading = true
	source := m.opts.Previews
	return func() tea.Msg {
		return previewFetchedMsg(b.ID, source.Fetch(m.ctx, website))
	}
}

func (m *Model) openBrowser(url string) tea.Cmd {
	open := m.opts.Open
	return func() tea.Msg {
		return browserOpenedMsg(open(url))
	}
}

func (m *Model) startWarm() tea.Cmd {
	updates := make(chan tasks.ProgressUpdate, 50)
	done := make(chan warmComplete, 1)
	m.updates, m.done = updates, done

	engine, opts := m.opts.Engine, m.opts.Warm
	go func() {
		summary, err := engine.WarmPreviews(m.ctx, updates, opts)
		close(updates)
		done <- warmComplete{summary, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		if updates == nil {
			return warmCompleteMsg(nil, nil)
		}
		update, ok := <-updates
		if !ok {
			res := <-done
			return warmCompleteMsg(res.summary, res.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit", m.err))
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case WarmView:
		return m.renderWarm()
	default:
		return ""
	}
}

func (m *Model) renderList() string {
	header := fmt.Sprintf("%s  %s", m.input.View(), styles.region.Render(m.Region()))
	body := m.list.View()
	if m.shown == 0 && m.bands != nil {
		body = styles.warn.Render("No bands match.")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.nextRegion, m.keys.warm, m.keys.back, m.keys.quit}
	footer := m.help.ShortHelpView(helpKeys)
	if m.status != "" {
		footer = styles.warn.Render(m.status) + "\n" + footer
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", header, body, footer)
}

func (m *Model) renderDetail() string {
	b := m.selected
	var sb strings.Builder

	sb.WriteString(styles.title.Render(b.Name))
	sb.WriteString("\n")
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "%s%s\n", styles.label.Render(label), value)
		}
	}
	row("City", b.City)
	row("Region", string(b.Region))
	row("Genres", strings.Join(b.Genres, ", "))

	r := links.Derive(b.Links)
	row("Website", r.Website)
	if r.Instagram != "" {
		row("Instagram", fmt.Sprintf("%s (%s)", r.InstagramLabel, r.Instagram))
	}
	row("Spotify", r.Spotify)
	row("YouTube", r.YouTube)
	if !r.Any() {
		sb.WriteString(styles.help.Render("No links yet.") + "\n")
	}

	sb.WriteString("\n")
	switch {
	case m.loading:
		sb.WriteString(styles.help.Render("Loading preview..."))
	case m.preview != nil:
		sb.WriteString(styles.ok.Render(previewHeadline(m.preview)))
		if m.preview.Description != "" {
			sb.WriteString("\n" + m.preview.Description)
		}
	case r.Website != "":
		sb.WriteString(styles.help.Render("No preview available."))
	}
	sb.WriteString("\n\n")

	if m.status != "" {
		sb.WriteString(styles.warn.Render(m.status) + "\n")
	}
	sb.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.back, m.keys.quit}))
	return sb.String()
}

func previewHeadline(p *models.LinkPreview) string {
	switch {
	case p.Title != "" && p.Host != "":
		return fmt.Sprintf("%s (%s)", p.Title, p.Host)
	case p.Title != "":
		return p.Title
	default:
		return p.Host
	}
}

func (m *Model) renderWarm() string {
	title := styles.title.Render("Warming Preview Cache")

	if m.updates != nil {
		var phase string
		switch m.progress.Phase {
		case tasks.LoadBands:
			phase = "Loading bands..."
		case tasks.FetchPreviews:
			phase = fmt.Sprintf("Fetching previews (%d/%d)", m.progress.Step, m.progress.Total)
		default:
			phase = "Starting..."
		}
		return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	if m.warmErr != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, styles.err.Render(fmt.Sprintf("Warm failed: %v", m.warmErr)), helpView)
	}
	if m.warm == nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, styles.warn.Render("No result available"), helpView)
	}

	info := fmt.Sprintf("Bands: %d\nWebsites: %d\nCached: %d\nNo preview: %d",
		m.warm.Bands, m.warm.Websites, m.warm.Cached, m.warm.Missing)
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s", title, styles.ok.Render("✓ Warm complete"), info, helpView)
}
