// Package tui holds the interactive terminal pieces of the CLI: a spinner
// shown while the pipeline runs and the styled summary printed after.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/baseguide/baseguide/internal/service"
)

type pipelineDoneMsg struct {
	result *service.Result
	err    error
}

// ProgressModel runs the analysis pipeline behind a spinner.
type ProgressModel struct {
	spinner spinner.Model
	message string
	run     func(context.Context) (*service.Result, error)

	result *service.Result
	err    error
	done   bool
}

// NewProgress creates a spinner model that executes run when started.
func NewProgress(message string, run func(context.Context) (*service.Result, error)) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ProgressModel{
		spinner: s,
		message: message,
		run:     run,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startPipeline())
}

func (m ProgressModel) startPipeline() tea.Cmd {
	return func() tea.Msg {
		result, err := m.run(context.Background())
		return pipelineDoneMsg{result: result, err: err}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
		return m, nil

	case pipelineDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m ProgressModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.message)
}

// Result returns the pipeline output once the program has finished.
func (m ProgressModel) Result() (*service.Result, error) {
	return m.result, m.err
}

// RunPipeline shows the spinner while run executes and returns its result.
func RunPipeline(message string, run func(context.Context) (*service.Result, error)) (*service.Result, error) {
	program := tea.NewProgram(NewProgress(message, run))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("running progress display: %w", err)
	}
	model, ok := final.(ProgressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final model type %T", final)
	}
	return model.Result()
}
