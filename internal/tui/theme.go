package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Danondso/squeak/internal/config"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name       string
	Primary    lipgloss.Color // title, speaking badge, level meter
	Secondary  lipgloss.Color // labels, border, input prompt
	Accent     lipgloss.Color // translation text, timeline grains
	Error      lipgloss.Color // error badge
	Success    lipgloss.Color // idle badge, intent gauge
	Warning    lipgloss.Color // thinking badge, debug component, reverb marker
	Background lipgloss.Color
	Text       lipgloss.Color
	Dimmed     lipgloss.Color // help line, debug text, empty meter cells
	Separator  lipgloss.Color
}

var themes = map[string]Theme{
	"synthwave": {
		Name:       "Synthwave",
		Primary:    lipgloss.Color("#FF6AC1"),
		Secondary:  lipgloss.Color("#00E5FF"),
		Accent:     lipgloss.Color("#B388FF"),
		Error:      lipgloss.Color("#FF8A80"),
		Success:    lipgloss.Color("#64FFDA"),
		Warning:    lipgloss.Color("#FFAB40"),
		Background: lipgloss.Color("#1A1A2E"),
		Text:       lipgloss.Color("#E0E0E0"),
		Dimmed:     lipgloss.Color("#666666"),
		Separator:  lipgloss.Color("#444444"),
	},
	"bamboo": {
		Name:       "Bamboo",
		Primary:    lipgloss.Color("#8BC34A"),
		Secondary:  lipgloss.Color("#A5D6A7"),
		Accent:     lipgloss.Color("#F8BBD0"),
		Error:      lipgloss.Color("#E57373"),
		Success:    lipgloss.Color("#C5E1A5"),
		Warning:    lipgloss.Color("#FFE082"),
		Background: lipgloss.Color("#1F2A1F"),
		Text:       lipgloss.Color("#F1F8E9"),
		Dimmed:     lipgloss.Color("#7A8B7A"),
		Separator:  lipgloss.Color("#3E4E3E"),
	},
	"gruvbox": {
		Name:       "Gruvbox",
		Primary:    lipgloss.Color("#FB4934"),
		Secondary:  lipgloss.Color("#83A598"),
		Accent:     lipgloss.Color("#D3869B"),
		Error:      lipgloss.Color("#FB4934"),
		Success:    lipgloss.Color("#B8BB26"),
		Warning:    lipgloss.Color("#FABD2F"),
		Background: lipgloss.Color("#282828"),
		Text:       lipgloss.Color("#EBDBB2"),
		Dimmed:     lipgloss.Color("#928374"),
		Separator:  lipgloss.Color("#504945"),
	},
	"monochrome": {
		Name:       "Monochrome",
		Primary:    lipgloss.Color("#FFFFFF"),
		Secondary:  lipgloss.Color("#CCCCCC"),
		Accent:     lipgloss.Color("#AAAAAA"),
		Error:      lipgloss.Color("#FF0000"),
		Success:    lipgloss.Color("#FFFFFF"),
		Warning:    lipgloss.Color("#CCCCCC"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#FFFFFF"),
		Dimmed:     lipgloss.Color("#888888"),
		Separator:  lipgloss.Color("#444444"),
	},
}

var themeOrder = []string{"synthwave", "bamboo", "gruvbox", "monochrome"}

var builtinThemes = map[string]bool{
	"synthwave":  true,
	"bamboo":     true,
	"gruvbox":    true,
	"monochrome": true,
}

// ThemeNames returns the names of all registered themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}

// LoadTheme returns the theme with the given name (case-insensitive).
// Falls back to synthwave if the name is not recognized.
func LoadTheme(name string) Theme {
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return themes["synthwave"]
}

// NextTheme returns the theme after the given one in the cycle order.
func NextTheme(current string) Theme {
	current = strings.ToLower(current)
	for i, name := range themeOrder {
		if name == current {
			return themes[themeOrder[(i+1)%len(themeOrder)]]
		}
	}
	return themes[themeOrder[0]]
}

// RegisterCustomThemes adds config palettes to the cycle. Entries with an
// empty name or a name already taken are skipped.
func RegisterCustomThemes(custom []config.CustomTheme) {
	for _, ct := range custom {
		key := strings.ToLower(ct.Name)
		if key == "" || builtinThemes[key] {
			continue
		}
		if _, exists := themes[key]; exists {
			continue
		}
		themes[key] = Theme{
			Name:       ct.Name,
			Primary:    lipgloss.Color(ct.Primary),
			Secondary:  lipgloss.Color(ct.Secondary),
			Accent:     lipgloss.Color(ct.Accent),
			Error:      lipgloss.Color(ct.Error),
			Success:    lipgloss.Color(ct.Success),
			Warning:    lipgloss.Color(ct.Warning),
			Background: lipgloss.Color(ct.Background),
			Text:       lipgloss.Color(ct.Text),
			Dimmed:     lipgloss.Color(ct.Dimmed),
			Separator:  lipgloss.Color(ct.Separator),
		}
		themeOrder = append(themeOrder, key)
	}
}

func fg(c, bg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Background(bg)
}

// applyTheme rebuilds every style from t.
func applyTheme(t Theme) {
	bg := t.Background

	titleStyle = fg(t.Primary, bg).Bold(true).MarginBottom(1)
	borderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Secondary).
		Padding(1, 2).
		Background(bg)
	labelStyle = fg(t.Secondary, bg).Bold(true)
	translationStyle = fg(t.Accent, bg).Italic(true)
	helpStyle = fg(t.Dimmed, bg)
	bodyStyle = fg(t.Text, bg)

	idleBadge = fg(t.Success, bg).Bold(true)
	thinkingBadge = fg(t.Warning, bg).Bold(true)
	speakingBadge = fg(t.Primary, bg).Bold(true)
	errorBadge = fg(t.Error, bg).Bold(true)

	meterStyle = fg(t.Primary, bg)
	meterEmptyStyle = fg(t.Dimmed, bg)
	gaugeStyle = fg(t.Success, bg)
	grainStyle = fg(t.Accent, bg)
	skippedStyle = fg(t.Error, bg)
	reverbStyle = fg(t.Warning, bg)

	debugTitleStyle = fg(t.Dimmed, bg).Bold(true)
	debugRuleStyle = fg(t.Dimmed, bg)
	debugHeaderStyle = fg(t.Dimmed, bg).Bold(true)
	debugTimeStyle = fg(t.Dimmed, bg)
	debugCategoryStyle = fg(t.Warning, bg)
	debugMsgStyle = fg(t.Dimmed, bg)
	debugSepStyle = fg(t.Separator, bg)

	statusOkStyle = fg(t.Success, bg).Bold(true)
	statusBadStyle = fg(t.Error, bg).Bold(true)
}
