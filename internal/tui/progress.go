package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

const (
	barPadding  = 2
	barMaxWidth = 80
)

type progressMsg jsonload.ProgressEvent
type rateMsg jsonload.RateEvent
type completeMsg jsonload.CompletionEvent

// stopMsg ends the program when a run returns without a completion event.
type stopMsg struct{}

// ProgressModel is the bubbletea model behind the live progress bar.
type ProgressModel struct {
	title      string
	bar        progress.Model
	keys       KeyMap
	cancel     func()
	cancelling bool

	completed int
	total     int
	rate      float64
	haveRate  bool
	summary   *jsonload.Summary
}

// NewProgressModel creates a model. cancel is invoked once when the user
// presses the cancel key; it may be nil.
func NewProgressModel(title string, cancel func()) ProgressModel {
	return ProgressModel{
		title:  title,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		keys:   DefaultKeyMap(),
		cancel: cancel,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding*2, barMaxWidth)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case progressMsg:
		m.completed, m.total = msg.Completed, msg.Total
		return m, nil

	case rateMsg:
		m.rate, m.haveRate = msg.FilesPerSecond, true
		return m, nil

	case completeMsg:
		s := msg.Summary
		m.summary = &s
		m.completed, m.total = s.Total, s.Total
		return m, tea.Quit

	case stopMsg:
		return m, tea.Quit
	}
	return m, nil
}

// Percent returns the fraction of files processed.
func (m ProgressModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

// Summary returns the completion summary, if one arrived.
func (m ProgressModel) Summary() (jsonload.Summary, bool) {
	if m.summary == nil {
		return jsonload.Summary{}, false
	}
	return *m.summary, true
}

// Cancelling reports whether the user asked to stop.
func (m ProgressModel) Cancelling() bool {
	return m.cancelling
}

func (m ProgressModel) View() string {
	pad := strings.Repeat(" ", barPadding)
	var b strings.Builder

	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(pad + m.bar.ViewAs(m.Percent()) + "\n")

	stats := fmt.Sprintf("%d/%d files", m.completed, m.total)
	if m.total == 0 {
		stats = "waiting for first batch"
	}
	if m.haveRate {
		stats += fmt.Sprintf(" %s %s", SymbolBullet, jsonload.RateEvent{FilesPerSecond: m.rate})
	}
	b.WriteString(pad + StatsStyle.Render(stats) + "\n")

	switch {
	case m.summary != nil && m.summary.Clean():
		b.WriteString(pad + SuccessStyle.Render(SymbolCheck+" "+m.summary.Message()) + "\n")
	case m.summary != nil:
		b.WriteString(pad + WarningStyle.Render(SymbolWarning+" "+m.summary.Message()) + "\n")
	case m.cancelling:
		b.WriteString(pad + WarningStyle.Render("Stopping after the current batch...") + "\n")
	default:
		b.WriteString(pad + HelpStyle.Render(m.keys.HelpText()) + "\n")
	}
	return b.String()
}

// ProgressView runs a ProgressModel on its own goroutine and feeds it run
// events. It implements jsonload.EventSink.
type ProgressView struct {
	program *tea.Program
	done    chan struct{}
	final   ProgressModel
	err     error
	once    sync.Once
}

// NewProgressView creates a view; call Start before the run and Stop after it.
func NewProgressView(title string, cancel func(), opts ...tea.ProgramOption) *ProgressView {
	model := NewProgressModel(title, cancel)
	return &ProgressView{
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
		final:   model,
	}
}

// Start launches the program.
func (v *ProgressView) Start() {
	go func() {
		defer close(v.done)
		m, err := v.program.Run()
		if pm, ok := m.(ProgressModel); ok {
			v.final = pm
		}
		v.err = err
	}()
}

func (v *ProgressView) OnProgress(e jsonload.ProgressEvent) {
	v.program.Send(progressMsg(e))
}

func (v *ProgressView) OnRate(e jsonload.RateEvent) {
	v.program.Send(rateMsg(e))
}

func (v *ProgressView) OnComplete(e jsonload.CompletionEvent) {
	v.program.Send(completeMsg(e))
}

// Stop ends the program if it is still running, waits for it to exit and
// returns the final model.
func (v *ProgressView) Stop() (ProgressModel, error) {
	v.once.Do(func() {
		select {
		case <-v.done:
		default:
			v.program.Send(stopMsg{})
		}
	})
	<-v.done
	return v.final, v.err
}

var _ jsonload.EventSink = (*ProgressView)(nil)
