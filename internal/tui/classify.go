// Package tui implements the interactive classification screen: type a
// description and category code, see the resolved classification live.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/engine"
	"github.com/sievemoney/sieve/internal/model"
)

const (
	fieldDescription = iota
	fieldCode
	fieldCount
)

// Model is the bubbletea model for the classify screen.
type Model struct {
	err        error
	classifier *engine.Classifier
	ctx        context.Context
	result     *model.Classification
	inputs     []textinput.Model
	focus      int
	quitting   bool
}

// NewModel creates the classify screen over the given classifier.
func NewModel(ctx context.Context, classifier *engine.Classifier) Model {
	description := textinput.New()
	description.Placeholder = "AMAZON.COM*12345"
	description.Prompt = "Description → "
	description.Focus()

	code := textinput.New()
	code.Placeholder = "PURCHASE"
	code.Prompt = "Category code → "

	return Model{
		ctx:        ctx,
		classifier: classifier,
		inputs:     []textinput.Model{description, code},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab", "down", "up":
		if keyMsg.String() == "shift+tab" || keyMsg.String() == "up" {
			m.focus--
		} else {
			m.focus++
		}
		m.focus = (m.focus + fieldCount) % fieldCount

		cmds := make([]tea.Cmd, 0, fieldCount)
		for i := range m.inputs {
			if i == m.focus {
				cmds = append(cmds, m.inputs[i].Focus())
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, tea.Batch(cmds...)

	case "enter":
		result, err := m.classifier.Classify(m.ctx,
			m.inputs[fieldDescription].Value(),
			m.inputs[fieldCode].Value())
		if err != nil {
			m.err = err
			m.result = nil
		} else {
			m.err = nil
			m.result = &result
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle("Classify a transaction"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(cli.FormatError(m.err.Error()))
	case m.result != nil:
		b.WriteString(renderResult(*m.result))
	default:
		b.WriteString(cli.SubtleStyle.Render("enter to classify, tab to switch fields, esc to quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func renderResult(result model.Classification) string {
	lines := []string{
		cli.FieldLine("Purchase type", string(result.PurchaseType)),
		cli.FieldLine("Category", orDash(result.Category)),
		cli.FieldLine("Subcategory", orDash(result.Subcategory)),
		cli.FieldLine("Online", fmt.Sprintf("%v", result.Online)),
		cli.FieldLine("Matched via", levelLabel(result)),
	}

	return cli.RenderBox("Result", lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func levelLabel(result model.Classification) string {
	switch result.Level {
	case model.MatchKeyword:
		if result.RuleID != "" {
			return "rule " + result.RuleID
		}
		return "keyword rule"
	case model.MatchFallback:
		return "category fallback"
	default:
		return "default"
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// Run starts the interactive classify screen and blocks until exit.
func Run(ctx context.Context, classifier *engine.Classifier) error {
	program := tea.NewProgram(NewModel(ctx, classifier))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive classify failed: %w", err)
	}
	return nil
}
