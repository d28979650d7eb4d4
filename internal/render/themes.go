package render

// ThemeInfo describes a markdown style for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the glamour styles the config accepts. A file path
// to a custom JSON style also works.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: "dark", Description: "Dark theme (default)"},
		{Name: "light", Description: "Light theme for bright terminals"},
		{Name: "dracula", Description: "Dracula color scheme"},
		{Name: "notty", Description: "Plain text (no styling)"},
		{Name: "ascii", Description: "ASCII-only output"},
	}
}

// IsBuiltinStyle reports whether the style is one glamour ships with.
func IsBuiltinStyle(style string) bool {
	for _, t := range AvailableThemes() {
		if t.Name == style {
			return true
		}
	}
	return style == "auto"
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
