package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/takosim/internal/config"
	"github.com/san-kum/takosim/internal/shaping"
	"github.com/san-kum/takosim/internal/sim"
)

const (
	stateMenu = iota
	statePlay
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff9e3d")).Bold(true)
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd27a")).Bold(true)
	menuActive   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#d99a3d")).Bold(true)
	menuError    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Menu picks a preset and a shaper, then hands over to a play Model.
type Menu struct {
	state   int
	cursor  int
	presets []string
	shapers []string
	shaper  int
	err     error
	play    Model
}

func NewMenu() Menu {
	return Menu{
		presets: config.ListPresets(),
		shapers: shaping.Names(),
	}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == statePlay {
		next, cmd := m.play.Update(msg)
		m.play = next.(Model)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "tab":
		if len(m.shapers) > 0 {
			m.shaper = (m.shaper + 1) % len(m.shapers)
		}
	case "enter", " ":
		return m.start()
	}
	return m, nil
}

func (m Menu) start() (tea.Model, tea.Cmd) {
	if len(m.presets) == 0 {
		return m, nil
	}
	cfg := config.GetPreset(m.presets[m.cursor])
	if len(m.shapers) > 0 {
		cfg.Session.Shaper = m.shapers[m.shaper]
	}
	s, err := sim.NewSession(cfg.SessionOptions())
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.play = NewModel(s, cfg)
	m.state = statePlay
	return m, m.play.Init()
}

func (m Menu) View() string {
	if m.state == statePlay {
		return m.play.View()
	}
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("TAKOSIM") + "\n    " + Subtle.Render("takoyaki pan simulator") + "\n    " + Subtle.Render("──────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := config.DescribePreset(name)
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuInactive.Render(fmt.Sprintf("%-10s", name)), menuInactive.Render(desc)))
		}
	}
	if len(m.shapers) > 0 {
		b.WriteString("\n    " + Subtle.Render("shaper ") + menuActive.Render(m.shapers[m.shaper]) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n    " + menuError.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + Subtle.Render(" navigate  ") + menuKey.Render("tab") + Subtle.Render(" shaper  ") + menuKey.Render("enter") + Subtle.Render(" play  ") + menuKey.Render("q") + Subtle.Render(" quit") + "\n")
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewMenu(), tea.WithAltScreen()).Run()
	return err
}
