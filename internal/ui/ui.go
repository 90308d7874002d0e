package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/soundry/soundry/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CountView ViewState = iota
	ConfirmView
	GenerateView
	ResultView
)

// trackCountChoices are the counts offered in the picker. Runs are batched
// in pairs, so every choice is even.
var trackCountChoices = []int{2, 4, 6, 8, 10, 20}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.GenerationEngine
	request      tasks.GenerateRequest
	width        int
	height       int
	countList    list.Model
	trackList    list.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.GenerateRunResult
	err          error
	help         help.Model
	keys         keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

type generateCompleteMsg struct {
	result *tasks.GenerateRunResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies. The
// request's TrackCount is ignored; the operator picks it interactively.
func NewModel(ctx context.Context, engine *tasks.GenerationEngine, request tasks.GenerateRequest) *Model {
	items := make([]list.Item, len(trackCountChoices))
	for i, count := range trackCountChoices {
		items[i] = countItem{count: count}
	}
	countList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	countList.Title = "How many tracks?"
	countList.SetFilteringEnabled(false)

	return &Model{
		ctx:       ctx,
		view:      CountView,
		engine:    engine,
		request:   request,
		countList: countList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.countList.SetSize(msg.Width-4, msg.Height-8)
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CountView:
			return m.handleCountKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case generateCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		if m.result != nil {
			items := make([]list.Item, len(m.result.Completed))
			for i, track := range m.result.Completed {
				items[i] = trackItem{track: track}
			}
			m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.trackList.Title = fmt.Sprintf("Generated tracks (batch %s)", m.result.BatchID)
			m.trackList.SetSize(m.width-4, m.height-8)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CountView:
		return m.renderCountList()
	case ConfirmView:
		return m.renderConfirm()
	case GenerateView:
		return m.renderGenerate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCountKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.countList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(countItem); ok {
				m.request.TrackCount = item.count
				m.view = ConfirmView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.countList, cmd = m.countList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = CountView
		return m, nil
	case "y":
		m.view = GenerateView
		return m, m.startGeneration()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = CountView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CountView:
		m.countList, cmd = m.countList.Update(msg)
	case ResultView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startGeneration() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Run(m.ctx, m.request, m.progressChan)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return generateCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return generateCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderCountList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.countList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Generate %d tracks?", m.request.TrackCount))
	info := fmt.Sprintf(
		"\nStyle: %s\nMood: %s\nBatches: %d\n",
		m.request.Style, m.request.Mood, m.request.TrackCount/2,
	)
	if m.request.Keywords != "" {
		info += fmt.Sprintf("Keywords: %s\n", m.request.Keywords)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderGenerate() string {
	title := styles.title.Render("Generating Tracks")

	var phase string
	switch m.progress.Phase {
	case tasks.PhaseTitle:
		phase = fmt.Sprintf("Resolving titles (batch %d/%d)...", m.progress.Batch, m.progress.TotalBatches)
	case tasks.PhaseSynth:
		phase = fmt.Sprintf("Submitting synthesis for %q...", m.progress.Title)
	case tasks.PhaseWait:
		phase = fmt.Sprintf("Waiting on synthesis (batch %d/%d)...", m.progress.Batch, m.progress.TotalBatches)
	case tasks.PhaseDownload:
		phase = fmt.Sprintf("Downloading %q (%d/%d)...", m.progress.Title, m.progress.Track, m.progress.TotalTracks)
	case tasks.PhaseImage:
		phase = fmt.Sprintf("Synthesizing cover for %q...", m.progress.Title)
	case tasks.PhaseComplete:
		phase = fmt.Sprintf("Completed track %d/%d", m.progress.Track, m.progress.TotalTracks)
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.result == nil {
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Generation failed: %v\n\nPress r to retry, q to quit", m.err))
		}
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	var header string
	if m.err != nil || m.result.ErrorMessage != "" {
		reason := m.result.ErrorMessage
		if reason == "" {
			reason = m.err.Error()
		}
		header = styles.warn.Render(fmt.Sprintf("Run stopped early: %s", reason))
	} else {
		header = styles.ok.Render("✓ Generation Complete!")
	}
	summary := fmt.Sprintf("Batch %s: %d/%d tracks", m.result.BatchID, len(m.result.Completed), m.request.TrackCount)

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", header, summary, m.trackList.View(), helpView)
}
