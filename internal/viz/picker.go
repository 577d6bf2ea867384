package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/swarmfield/internal/config"
)

// Picker is a menu of configuration presets. After the program exits,
// Choice holds the selected preset name, or "" if the user quit.
type Picker struct {
	names  []string
	cursor int
	Choice string
}

func NewPicker() Picker {
	return Picker{names: config.ListPresets()}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		p.Choice = ""
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.names) > 0 {
			p.Choice = p.names[p.cursor]
		}
		return p, tea.Quit
	}
	return p, nil
}

func (p Picker) View() string {
	var s strings.Builder
	s.WriteString(headerStyle().Render("SWARMFIELD PRESETS") + "\n")
	for i, name := range p.names {
		cfg := config.GetPreset(name)
		line := fmt.Sprintf("%-10s %3d particles  idle %.0f  damping %.2f",
			name, cfg.Swarm.Particles, cfg.Anchor.IdleDistance, cfg.Anchor.Damping)
		if i == p.cursor {
			s.WriteString(fg(CurrentTheme.Primary).Bold(true).Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + fg(CurrentTheme.Muted).Render(line) + "\n")
		}
	}
	s.WriteString("\n" + fg(CurrentTheme.Muted).Render("↑/↓ select  enter start  q quit"))
	return s.String()
}
