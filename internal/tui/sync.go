package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"bikelog/internal/service"
)

// Fetcher runs a fetch, reporting on progress
type Fetcher interface {
	Fetch(ctx context.Context, opts service.FetchOptions, progress chan<- service.FetchProgress) (*service.FetchResult, error)
}

// FetchModel shows a spinner and progress bar while activities download
type FetchModel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	fetcher  Fetcher
	opts     service.FetchOptions
	progress chan service.FetchProgress
	spinner  spinner.Model

	last   service.FetchProgress
	result *service.FetchResult
	err    error
	done   bool
}

// NewFetchModel creates a model that runs fetcher when started
func NewFetchModel(ctx context.Context, fetcher Fetcher, opts service.FetchOptions) FetchModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return FetchModel{
		ctx:      ctx,
		cancel:   cancel,
		fetcher:  fetcher,
		opts:     opts,
		progress: make(chan service.FetchProgress, 16),
		spinner:  s,
	}
}

type progressMsg service.FetchProgress

// FetchDoneMsg is sent when the fetch finishes
type FetchDoneMsg struct {
	Result *service.FetchResult
	Err    error
}

// Init starts the fetch
func (m FetchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runFetch, m.waitForProgress)
}

// Update handles messages
func (m FetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.last = service.FetchProgress(msg)
		return m, m.waitForProgress

	case FetchDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		m.cancel()
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The fetch returns promptly once its context is canceled.
			m.cancel()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m FetchModel) runFetch() tea.Msg {
	result, err := m.fetcher.Fetch(m.ctx, m.opts, m.progress)
	return FetchDoneMsg{Result: result, Err: err}
}

func (m FetchModel) waitForProgress() tea.Msg {
	p, ok := <-m.progress
	if !ok {
		return nil
	}
	return progressMsg(p)
}

// Result returns the outcome once the program has exited
func (m FetchModel) Result() (*service.FetchResult, error) {
	return m.result, m.err
}

// View renders the progress line
func (m FetchModel) View() string {
	if m.done {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("  Fetch failed: %v", m.err)) + "\n"
		}
		return successStyle.Render("  Fetch complete") + "\n"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("  %s %s", m.spinner.View(), phaseLabel(m.last.Phase)))

	if m.last.Total > 0 {
		percent := float64(m.last.Completed) / float64(m.last.Total)
		lines = append(lines, fmt.Sprintf("  %s %d/%d", RenderProgressBar(percent, 30), m.last.Completed, m.last.Total))
	}
	if m.last.Current != "" {
		lines = append(lines, statusStyle.Render("  "+m.last.Current))
	}
	lines = append(lines, statusStyle.Render("  Press q to cancel"))
	return strings.Join(lines, "\n") + "\n"
}

func phaseLabel(phase string) string {
	switch phase {
	case service.PhaseAthlete:
		return "Loading athlete and bikes..."
	case service.PhaseActivities:
		return "Listing activities..."
	case service.PhaseDetails:
		return "Downloading activity details..."
	case service.PhaseSegments:
		return "Loading starred segments..."
	}
	return "Connecting to Strava..."
}

// IsTerminal reports whether f is an interactive terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// RunFetch runs the fetch. With interactive set, progress is drawn on out with
// bubbletea; otherwise progress goes to the debug log.
func RunFetch(ctx context.Context, fetcher Fetcher, opts service.FetchOptions, out io.Writer, interactive bool, logger *zap.Logger) (*service.FetchResult, error) {
	if !interactive {
		progress := make(chan service.FetchProgress, 16)
		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for p := range progress {
				logger.Debug("fetch progress",
					zap.String("phase", p.Phase),
					zap.Int("completed", p.Completed),
					zap.Int("total", p.Total))
			}
		}()
		result, err := fetcher.Fetch(ctx, opts, progress)
		<-drained
		return result, err
	}

	model := NewFetchModel(ctx, fetcher, opts)
	final, err := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("running progress display: %w", err)
	}
	return final.(FetchModel).Result()
}
