// Package ui renders search progress in the terminal.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/montrey/ftpseek/search"
)

// EventMsg carries one search event into the program.
type EventMsg search.Event

// DoneMsg ends the program with the search outcome.
type DoneMsg struct {
	Result search.Result
	Err    error
}

// maxTreeLines bounds the visited-directory tree shown after a search.
const maxTreeLines = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
)

// ProgressModel shows a running search and, when it ends, the directories
// it visited.
type ProgressModel struct {
	spinner  spinner.Model
	host     string
	filename string
	cancel   context.CancelFunc

	level      int
	candidates int
	current    string
	listings   int
	excluded   int
	visited    []string
	failed     map[string]bool

	cancelling bool
	done       bool
	result     search.Result
	err        error
	width      int
}

// NewProgressModel returns a model for a search of filename on host. cancel
// is called when the user quits early.
func NewProgressModel(host, filename string, cancel context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return ProgressModel{
		spinner:  s,
		host:     host,
		filename: filename,
		cancel:   cancel,
		failed:   make(map[string]bool),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			// The search reports back through DoneMsg once it stops.
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case EventMsg:
		m.apply(search.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) apply(ev search.Event) {
	switch ev.Kind {
	case search.EventLevel:
		m.level = ev.Level
		m.candidates = ev.Candidates
	case search.EventList:
		m.listings++
		if ev.Path != "" {
			m.current = ev.Path
			m.visited = append(m.visited, ev.Path)
		}
	case search.EventListFailed:
		m.failed[ev.Path] = true
	case search.EventExcluded:
		m.excluded++
	}
}

func (m ProgressModel) View() string {
	if m.done {
		return m.summaryView()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Searching %s for %s\n", m.spinner.View(), m.host, titleStyle.Render(m.filename))
	fmt.Fprintf(&b, "  level %d · %d candidates · %d listed · %d excluded\n", m.level, m.candidates, m.listings, m.excluded)
	current := m.current
	if m.width > 4 && len(current) > m.width-4 {
		current = "…" + current[len(current)-(m.width-5):]
	}
	fmt.Fprintf(&b, "  %s\n", helpStyle.Render(current))
	if m.cancelling {
		b.WriteString(helpStyle.Render("Stopping…") + "\n")
	} else {
		b.WriteString(helpStyle.Render("q: stop") + "\n")
	}
	return b.String()
}

func (m ProgressModel) summaryView() string {
	var b strings.Builder
	switch {
	case m.err != nil && errors.Is(m.err, context.Canceled):
		b.WriteString(errStyle.Render("Search stopped") + "\n")
	case m.err != nil:
		b.WriteString(errStyle.Render("Search failed: "+m.err.Error()) + "\n")
	case m.result.Outcome == search.Found:
		fmt.Fprintf(&b, "%s found in %s\n", titleStyle.Render(m.filename), foundStyle.Render(m.result.Path))
	default:
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(m.filename), m.result.Outcome)
	}
	if len(m.visited) > 0 {
		b.WriteString(RenderTree(m.visited, TreeOptions{
			Found:    m.result.Path,
			Failed:   m.failed,
			MaxLines: maxTreeLines,
		}))
		b.WriteString("\n")
	}
	return b.String()
}

// Result returns the outcome received through DoneMsg.
func (m ProgressModel) Result() (search.Result, error) {
	return m.result, m.err
}

// SearchFunc runs a search, reporting progress to observe.
type SearchFunc func(ctx context.Context, observe search.Observer) (search.Result, error)

// Run shows the progress view while run executes. Quitting the view cancels
// the context passed to run.
func Run(ctx context.Context, host, filename string, run SearchFunc, opts ...tea.ProgramOption) (search.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(host, filename, cancel), opts...)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		res, err := run(ctx, func(ev search.Event) {
			p.Send(EventMsg(ev))
		})
		p.Send(DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-finished
		return search.Result{}, fmt.Errorf("running progress view: %w", err)
	}
	<-finished
	return final.(ProgressModel).Result()
}
