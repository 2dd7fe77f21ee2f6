package ui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type doneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newSpinnerModel(label string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)
	return spinnerModel{spinner: s, label: label}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + styleSubtle.Render(m.label)
}

// errInterrupted is returned when the user presses Ctrl+C while the spinner runs.
var errInterrupted = errors.New("interrupted")

// RunWithSpinner runs fn while a spinner is shown on out. When out is not a terminal,
// fn runs without one. Ctrl+C cancels the context passed to fn.
func RunWithSpinner[T any](ctx context.Context, out io.Writer, label string, fn func(context.Context) (T, error)) (T, error) {
	if !IsTerminal(out) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		result T
		err    error
	)
	finished := make(chan struct{})
	p := tea.NewProgram(newSpinnerModel(label), tea.WithOutput(out), tea.WithContext(ctx))
	go func() {
		defer close(finished)
		result, err = fn(ctx)
		p.Send(doneMsg{})
	}()

	if _, runErr := p.Run(); runErr == nil {
		// The program also quits on Ctrl+C before fn is done.
		select {
		case <-finished:
		default:
			cancel(errInterrupted)
		}
	} else {
		cancel(runErr)
	}
	<-finished
	return result, err
}
