package config

import (
	"context"
	"crypto/sha256"
	"os"
	"time"
)

// DefaultWatchInterval is the poll cadence for config file changes.
const DefaultWatchInterval = 2 * time.Second

// Watcher polls the config and pack files for content changes. Polling
// rather than inotify keeps editor save strategies (rename-over, truncate)
// from producing missed or duplicate events.
type Watcher struct {
	paths    []string
	interval time.Duration
	sums     map[string][sha256.Size]byte
}

func NewWatcher(interval time.Duration, paths ...string) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	w := &Watcher{
		paths:    paths,
		interval: interval,
		sums:     make(map[string][sha256.Size]byte),
	}
	for _, path := range paths {
		w.sums[path] = hashFile(path)
	}
	return w
}

// Run polls until the context ends, invoking onChange with each path whose
// content hash changed.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, path := range w.Poll() {
				onChange(path)
			}
		}
	}
}

// Poll checks every watched path once, returning those that changed.
func (w *Watcher) Poll() []string {
	var changed []string
	for _, path := range w.paths {
		sum := hashFile(path)
		if sum != w.sums[path] {
			w.sums[path] = sum
			changed = append(changed, path)
		}
	}
	return changed
}

// hashFile returns the content hash, or a zero hash for an unreadable file
// so that file creation later registers as a change.
func hashFile(path string) [sha256.Size]byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}
	}
	return sha256.Sum256(data)
}

// Diff classifies how a config change can be applied.
type Diff struct {
	// Hot settings take effect without restarting the session.
	Hot []string
	// Restart settings need a session restart to apply.
	Restart []string
}

// RequiresRestart reports whether any changed setting cannot hot-apply.
func (d Diff) RequiresRestart() bool {
	return len(d.Restart) > 0
}

// Changed reports whether anything differs at all.
func (d Diff) Changed() bool {
	return len(d.Hot) > 0 || len(d.Restart) > 0
}

// Compare classifies the differences between two configs. Settings that
// rebuild long-lived resources (capture stream, recognizer session, hotkey
// registrations, the mode state machine) require a restart; per-utterance
// settings apply hot.
func Compare(old, next Config) Diff {
	var d Diff

	restart := func(name string, differs bool) {
		if differs {
			d.Restart = append(d.Restart, name)
		}
	}
	hot := func(name string, differs bool) {
		if differs {
			d.Hot = append(d.Hot, name)
		}
	}

	restart("audio", old.Audio != next.Audio)
	restart("recognizer", old.Recognizer != next.Recognizer)
	restart("hotkeys", old.Hotkeys != next.Hotkeys)
	restart("modes.default", old.Modes.Default != next.Modes.Default)
	restart("features", old.Features != next.Features)
	restart("output", old.Output.PasteShortcut != next.Output.PasteShortcut ||
		old.Output.ClipboardCmd.Raw != next.Output.ClipboardCmd.Raw)

	hot("vad", old.VAD != next.VAD)
	hot("wake", old.Wake != next.Wake)
	hot("modes.inactivity_pause_seconds", old.Modes.InactivityPauseSeconds != next.Modes.InactivityPauseSeconds)
	hot("modes.paused_resume_phrase", old.Modes.PausedResumePhrase != next.Modes.PausedResumePhrase)
	hot("typing", old.Typing != next.Typing)
	hot("fuzzy", old.Fuzzy != next.Fuzzy)
	hot("privacy", old.Privacy != next.Privacy)
	hot("ui", old.UI != next.UI)
	hot("profiles", !profilesEqual(old.Profiles, next.Profiles))

	return d
}

func profilesEqual(a, b map[string]Profile) bool {
	if len(a) != len(b) {
		return false
	}
	for name, pa := range a {
		pb, ok := b[name]
		if !ok || !profileEqual(pa, pb) {
			return false
		}
	}
	return true
}

func profileEqual(a, b Profile) bool {
	if len(a.Match) != len(b.Match) {
		return false
	}
	for i := range a.Match {
		if a.Match[i] != b.Match[i] {
			return false
		}
	}
	return floatPtrEqual(a.Typing.ConfidenceThreshold, b.Typing.ConfidenceThreshold) &&
		boolPtrEqual(a.Typing.TrailingSpace, b.Typing.TrailingSpace) &&
		boolPtrEqual(a.Typing.CapitalizeSentences, b.Typing.CapitalizeSentences)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
