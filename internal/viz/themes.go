package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the host. Raised and Sunk shade terrain above and below zero.
type Theme struct {
	Name     string
	Primary  lipgloss.Color
	Accent   lipgloss.Color
	Raised   lipgloss.Color
	Sunk     lipgloss.Color
	Particle lipgloss.Color
	Anchor   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:     "cyberpunk",
		Primary:  lipgloss.Color("#ff00ff"),
		Accent:   lipgloss.Color("#ffff00"),
		Raised:   lipgloss.Color("#00ffff"),
		Sunk:     lipgloss.Color("#8800ff"),
		Particle: lipgloss.Color("#ffffff"),
		Anchor:   lipgloss.Color("#ffff00"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#666666"),
		Success:  lipgloss.Color("#00ff00"),
		Warning:  lipgloss.Color("#ff8800"),
		Error:    lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Primary:  lipgloss.Color("#00ff00"),
		Accent:   lipgloss.Color("#88ff88"),
		Raised:   lipgloss.Color("#00cc00"),
		Sunk:     lipgloss.Color("#005500"),
		Particle: lipgloss.Color("#ccffcc"),
		Anchor:   lipgloss.Color("#ffff00"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
		Success:  lipgloss.Color("#88ff88"),
		Warning:  lipgloss.Color("#ffff00"),
		Error:    lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Primary:  lipgloss.Color("#0077be"),
		Accent:   lipgloss.Color("#ffd700"),
		Raised:   lipgloss.Color("#00a8cc"),
		Sunk:     lipgloss.Color("#004466"),
		Particle: lipgloss.Color("#e0f0ff"),
		Anchor:   lipgloss.Color("#ffd700"),
		Text:     lipgloss.Color("#e0f0ff"),
		Muted:    lipgloss.Color("#4488aa"),
		Success:  lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffcc00"),
		Error:    lipgloss.Color("#ff4444"),
	}

	ThemeSunset = Theme{
		Name:     "sunset",
		Primary:  lipgloss.Color("#ff6b6b"),
		Accent:   lipgloss.Color("#ff9ff3"),
		Raised:   lipgloss.Color("#feca57"),
		Sunk:     lipgloss.Color("#8b6b8c"),
		Particle: lipgloss.Color("#fff5f5"),
		Anchor:   lipgloss.Color("#ff9ff3"),
		Text:     lipgloss.Color("#fff5f5"),
		Muted:    lipgloss.Color("#8b6b8c"),
		Success:  lipgloss.Color("#5fd068"),
		Warning:  lipgloss.Color("#ffc048"),
		Error:    lipgloss.Color("#ff4757"),
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// CycleTheme switches to the theme after the current one.
func CycleTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
