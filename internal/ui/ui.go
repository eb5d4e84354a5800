package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	CopyView
	ResultView
)

// Library is the part of a parsed export the TUI reads.
type Library interface {
	PlaylistNames() []string
	Playlist(name string) (*models.Playlist, error)
}

// Copier copies resolved tracks into a folder, reporting progress.
type Copier interface {
	Copy(ctx context.Context, progress chan<- tasks.ProgressUpdate, tracks []models.Track, outputDir string) (*tasks.CopyResult, error)
}

// Options customise where copies go and what happens after a run.
type Options struct {
	OutputFolder func(playlist string) string                    // Required
	OnComplete   func(playlist string, result *tasks.CopyResult) // Optional; runs on the copy goroutine
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	library      Library
	engine       Copier
	opts         Options
	width        int
	height       int
	playlistList list.Model
	playlists    []models.Playlist
	trackList    list.Model
	selected     *models.Playlist
	outputDir    string
	progressChan chan tasks.ProgressUpdate
	doneChan     chan copyComplete
	cancelCopy   context.CancelFunc
	stopping     bool
	progress     tasks.ProgressUpdate
	log          []string
	spinner      spinner.Model
	result       *tasks.CopyResult
	notice       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, library Library, engine Copier, opts Options) *Model {
	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		library:      library,
		engine:       engine,
		opts:         opts,
		playlistList: newList(nil, "Playlists"),
		trackList:    newList(nil, "Tracks"),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState { return m.view }

// Result returns the outcome of the last copy, if any.
func (m *Model) Result() *tasks.CopyResult { return m.result }

// Init resolves every playlist so the list can show track counts.
func (m *Model) Init() tea.Cmd {
	return m.loadPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case CopyView:
			if msg.String() == "ctrl+c" && !m.stopping {
				m.stopping = true
				m.cancelCopy()
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != CopyView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsLoaded:
		data := msg.data.(playlistsLoaded)
		m.playlists = data.playlists
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		cmd := m.playlistList.SetItems(items)
		if len(items) == 0 {
			m.notice = "No playlists found in library"
		}
		return m, cmd

	case MsgTracksLoaded:
		data := msg.data.(tracksLoaded)
		if data.err != nil {
			m.notice = data.err.Error()
			return m, nil
		}
		if len(data.playlist.Tracks) == 0 {
			m.notice = "No tracks found in playlist"
			return m, nil
		}

		m.notice = ""
		m.selected = data.playlist
		items := make([]list.Item, len(data.playlist.Tracks))
		for i, track := range data.playlist.Tracks {
			items[i] = trackItem{position: i + 1, track: track}
		}
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.playlist.Name)
		cmd := m.trackList.SetItems(items)
		m.view = TrackListView
		return m, cmd

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		if m.progress.Phase == tasks.CopyTracks {
			m.log = append(m.log, m.progress.Message)
		}
		return m, m.waitForProgress()

	case MsgCopyComplete:
		data := msg.data.(copyComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		m.cancelCopy = nil
		if m.stopping {
			m.stopping = false
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.loadTracks(pl.playlist.Name)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.selected = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.outputDir = m.opts.OutputFolder(m.selected.Name)
		m.view = ConfirmView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), msg.String() == "q":
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = CopyView
		return m, tea.Batch(m.startCopy(), m.spinner.Tick)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selected = nil
		m.result = nil
		m.err = nil
		m.log = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.loadPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		names := m.library.PlaylistNames()
		playlists := make([]models.Playlist, 0, len(names))
		for _, name := range names {
			pl, err := m.library.Playlist(name)
			if err != nil {
				continue
			}
			playlists = append(playlists, *pl)
		}
		return playlistsLoadedMsg(playlists)
	}
}

func (m *Model) loadTracks(name string) tea.Cmd {
	return func() tea.Msg {
		return tracksLoadedMsg(m.library.Playlist(name))
	}
}

// startCopy runs the engine on its own goroutine. The progress channel holds every update of
// the run so none are dropped by the engine's non-blocking sends.
func (m *Model) startCopy() tea.Cmd {
	playlist, outputDir := m.selected, m.outputDir
	progress := make(chan tasks.ProgressUpdate, len(playlist.Tracks)+4)
	done := make(chan copyComplete, 1)
	ctx, cancel := context.WithCancel(m.ctx)
	m.progressChan, m.doneChan, m.cancelCopy = progress, done, cancel

	go func() {
		result, err := m.engine.Copy(ctx, progress, playlist.Tracks, outputDir)
		cancel()
		if result != nil && m.opts.OnComplete != nil {
			m.opts.OnComplete(playlist.Name, result)
		}
		close(progress)
		done <- copyComplete{result, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return copyCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			outcome := <-done
			return copyCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case CopyView:
		return m.renderCopy()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	return "\n" + styles.warn.Render(m.notice)
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", m.playlistList.View(), m.renderNotice(), helpView)
}

func (m *Model) renderTrackList() string {
	copyKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy"))
	helpView := m.help.ShortHelpView([]key.Binding{copyKey, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Copy '%s'?", m.selected.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nOutput folder: %s\n", m.selected.Name, len(m.selected.Tracks), m.outputDir)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderCopy() string {
	title := styles.title.Render("Copying Playlist")

	var phase string
	switch {
	case m.stopping:
		phase = "Stopping after the current track..."
	case m.progress.Phase == tasks.PrepareOutput:
		phase = "Preparing output folder..."
	case m.progress.Phase == tasks.CopyTracks:
		phase = fmt.Sprintf("Copying tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case m.progress.Phase == tasks.Complete:
		phase = "Finishing..."
	}

	recent := m.log
	if limit := max(m.height-10, 5); len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	lines := make([]string, len(recent))
	for i, line := range recent {
		lines[i] = "  " + paintLine(line)
	}

	return fmt.Sprintf("%s\n\n%s %s\n\n%s", title, m.spinner.View(), phase, strings.Join(lines, "\n"))
}

func paintLine(line string) string {
	if strings.HasPrefix(line, "✗") {
		return styles.err.Render(line)
	}
	return styles.ok.Render(line)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.result == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Copy failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	title := styles.ok.Render("✓ Copy Complete!")
	if m.err != nil {
		title = styles.warn.Render(fmt.Sprintf("Copy stopped: %v", m.err))
	}

	info := fmt.Sprintf(
		"\nSuccessfully copied: %d/%d tracks\nFailed: %d\nOutput folder: %s",
		m.result.Successful,
		m.result.Total,
		m.result.Failed,
		m.result.OutputDir,
	)

	var failed string
	if m.result.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Could not copy %d tracks:", m.result.Failed)))
		for _, item := range m.result.Items {
			if item.Err != nil {
				failed += fmt.Sprintf("\n  • %03d %s (%s)", item.Position, item.Track.DisplayName(), item.Status())
			}
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
