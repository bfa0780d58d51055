package config

import (
	"sort"
	"strings"
)

// builtinClasses expand a profile match entry into a family of window
// classes, so a profile can say "terminal" instead of enumerating emulators.
var builtinClasses = map[string][]string{
	"terminal": {"kitty", "alacritty", "foot", "wezterm", "ghostty", "konsole", "org.gnome.terminal"},
	"editor":   {"code", "codium", "neovide", "emacs", "sublime_text", "jetbrains"},
	"browser":  {"firefox", "chromium", "google-chrome", "brave", "librewolf", "vivaldi"},
}

// MatchProfile returns the first profile (by sorted name) whose match list
// covers the focused window class. Matching is case-insensitive substring;
// an entry naming a builtin class family matches any member.
func MatchProfile(cfg Config, windowClass string) (string, Profile, bool) {
	if !cfg.Features.PerAppProfiles || windowClass == "" {
		return "", Profile{}, false
	}
	class := strings.ToLower(strings.TrimSpace(windowClass))

	for _, name := range sortedProfileNames(cfg.Profiles) {
		profile := cfg.Profiles[name]
		for _, entry := range profile.Match {
			if matchesClass(class, entry) {
				return name, profile, true
			}
		}
	}
	return "", Profile{}, false
}

func matchesClass(class, entry string) bool {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if entry == "" {
		return false
	}
	if members, ok := builtinClasses[entry]; ok {
		for _, member := range members {
			if strings.Contains(class, member) {
				return true
			}
		}
		return false
	}
	return strings.Contains(class, entry)
}

func sortedProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyProfile overlays a profile's typing overrides onto the global typing
// settings.
func ApplyProfile(base TypingConfig, p Profile) TypingConfig {
	out := base
	if p.Typing.ConfidenceThreshold != nil {
		out.ConfidenceThreshold = *p.Typing.ConfidenceThreshold
	}
	if p.Typing.TrailingSpace != nil {
		out.TrailingSpace = *p.Typing.TrailingSpace
	}
	if p.Typing.CapitalizeSentences != nil {
		out.CapitalizeSentences = *p.Typing.CapitalizeSentences
	}
	return out
}
