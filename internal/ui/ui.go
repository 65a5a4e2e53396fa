package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/stats"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	TrackListView
	ArtistListView
	StatsView
)

// menu entries shown on the landing view, in display order.
var menuEntries = []string{
	"Top Tracks",
	"Top Artists",
	"Listening Stats",
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	spotify    services.Service
	timeRange  services.TimeRange
	width      int
	height     int
	cursor     int
	trackList  list.Model
	artistList list.Model
	report     *stats.Report
	loading    bool
	err        error
	help       help.Model
	keys       keyMap
}

type tracksFetchedMsg struct {
	tracks []services.Track
	err    error
}

type artistsFetchedMsg struct {
	artists []services.Artist
	err     error
}

type statsFetchedMsg struct {
	report *stats.Report
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, spotify services.Service, timeRange services.TimeRange) *Model {
	return &Model{
		ctx:       ctx,
		view:      MenuView,
		spotify:   spotify,
		timeRange: timeRange,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init performs no upfront work; data loads when a menu entry is selected.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.artistList.Width() == 0 {
			m.artistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case TrackListView, ArtistListView:
			return m.handleListKeys(msg)
		case StatsView:
			return m.handleStatsKeys(msg)
		}

	case tracksFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Top Tracks (%s)", m.timeRange)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case artistsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.artists))
		for i, artist := range msg.artists {
			items[i] = artistItem{artist: artist}
		}
		m.artistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.artistList.Title = fmt.Sprintf("Top Artists (%s)", m.timeRange)
		m.artistList.SetSize(m.width-4, m.height-8)
		m.view = ArtistListView
		return m, nil

	case statsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.report = msg.report
		m.view = StatsView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.loading {
		return styles.help.Render("Loading...")
	}

	switch m.view {
	case MenuView:
		return m.renderMenu()
	case TrackListView:
		return m.renderTrackList()
	case ArtistListView:
		return m.renderArtistList()
	case StatsView:
		return m.renderStats()
	default:
		return ""
	}
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuEntries)-1 {
			m.cursor++
		}
	case "r":
		m.err = nil
	case "enter":
		if m.err != nil {
			return m, nil
		}
		m.loading = true
		switch m.cursor {
		case 0:
			return m, m.fetchTracks()
		case 1:
			return m, m.fetchArtists()
		case 2:
			return m, m.fetchStats()
		}
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MenuView
		return m, nil
	case "r":
		m.err = nil
		m.loading = true
		if m.view == TrackListView {
			return m, m.fetchTracks()
		}
		return m, m.fetchArtists()
	}

	return m.updateLists(msg)
}

func (m *Model) handleStatsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MenuView
		return m, nil
	case "r":
		m.err = nil
		m.loading = true
		return m, m.fetchStats()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case ArtistListView:
		m.artistList, cmd = m.artistList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchTracks() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.spotify.TopTracks(m.ctx, 50, m.timeRange)
		return tracksFetchedMsg{tracks: tracks, err: err}
	}
}

func (m *Model) fetchArtists() tea.Cmd {
	return func() tea.Msg {
		artists, err := m.spotify.TopArtists(m.ctx, 50, m.timeRange)
		return artistsFetchedMsg{artists: artists, err: err}
	}
}

func (m *Model) fetchStats() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.spotify.TopTracks(m.ctx, 50, services.MediumTerm)
		if err != nil {
			return statsFetchedMsg{err: err}
		}
		artists, err := m.spotify.TopArtists(m.ctx, 50, services.MediumTerm)
		if err != nil {
			return statsFetchedMsg{err: err}
		}
		return statsFetchedMsg{report: stats.Compute(tracks, artists)}
	}
}

func (m *Model) renderMenu() string {
	title := styles.title.Render("Sephire")

	body := ""
	for i, entry := range menuEntries {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		body += fmt.Sprintf("%s%s\n", cursor, entry)
	}

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, body, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderArtistList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.artistList.View(), helpView)
}

func (m *Model) renderStats() string {
	title := styles.title.Render("Listening Stats")

	summary := fmt.Sprintf(
		"Tracks: %d  Artists: %d  Genres: %d\nAvg track popularity: %.1f\nAvg artist popularity: %.1f\nEstimated listening hours: %.2f\n",
		m.report.Summary.TotalTopTracks,
		m.report.Summary.TotalTopArtists,
		m.report.Summary.UniqueGenres,
		m.report.Summary.AvgTrackPopularity,
		m.report.Summary.AvgArtistPopularity,
		m.report.Summary.EstimatedListeningHours,
	)

	taste := fmt.Sprintf(
		"%s (mainstream factor %.1f, diversity %d)\n",
		styles.ok.Render(string(m.report.TasteProfile.DiscoveryLevel)),
		m.report.TasteProfile.MainstreamFactor,
		m.report.TasteProfile.DiversityScore,
	)

	genres := ""
	if len(m.report.TopGenres) > 0 {
		genres = "\nTop genres:\n"
		for i, genre := range m.report.TopGenres {
			genres += fmt.Sprintf("  %d. %s (%d)\n", i+1, genre.Genre, genre.Count)
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s%s\n%s", title, summary, taste, genres, helpView)
}
