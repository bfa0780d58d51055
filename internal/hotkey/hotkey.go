// Package hotkey registers global keyboard chords and turns keydown events
// into runtime control signals.
package hotkey

import (
	"context"
	"fmt"
	"strings"

	"golang.design/x/hotkey"

	"github.com/voicekey-io/voicekey/internal/resilience"
)

// Chord is a parsed hotkey binding.
type Chord struct {
	Spec      string
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
}

var modifierNames = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.Mod1,
	"super": hotkey.Mod4,
}

var keyNames = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"enter":  hotkey.KeyReturn,
	"return": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape,
	"tab":    hotkey.KeyTab,
	"up":     hotkey.KeyUp,
	"down":   hotkey.KeyDown,
	"left":   hotkey.KeyLeft,
	"right":  hotkey.KeyRight,

	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// ParseChord parses a spec like "ctrl+shift+m". Modifiers come first, the
// final token is the key; matching is case-insensitive.
func ParseChord(spec string) (Chord, error) {
	tokens := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "+")
	if len(tokens) == 0 || tokens[0] == "" {
		return Chord{}, fmt.Errorf("empty hotkey chord")
	}

	chord := Chord{Spec: spec}
	for _, token := range tokens[:len(tokens)-1] {
		mod, ok := modifierNames[strings.TrimSpace(token)]
		if !ok {
			return Chord{}, fmt.Errorf("hotkey %q: unknown modifier %q", spec, token)
		}
		chord.Modifiers = append(chord.Modifiers, mod)
	}

	last := strings.TrimSpace(tokens[len(tokens)-1])
	key, ok := keyNames[last]
	if !ok {
		return Chord{}, fmt.Errorf("hotkey %q: unknown key %q", spec, last)
	}
	chord.Key = key

	if len(chord.Modifiers) == 0 {
		return Chord{}, fmt.Errorf("hotkey %q: at least one modifier is required", spec)
	}
	return chord, nil
}

// Binding is one registered chord delivering keydown signals.
type Binding struct {
	chord Chord
	hk    *hotkey.Hotkey
}

// Register claims the chord globally. A registration failure is reported
// with the hotkey_conflict taxonomy code so the caller can surface the
// remediation and keep running without the binding.
func Register(chord Chord) (*Binding, error) {
	hk := hotkey.New(chord.Modifiers, chord.Key)
	if err := hk.Register(); err != nil {
		return nil, resilience.NewError(resilience.CodeHotkeyConflict,
			fmt.Errorf("register %q: %w", chord.Spec, err))
	}
	return &Binding{chord: chord, hk: hk}, nil
}

// Chord returns the registered chord.
func (b *Binding) Chord() Chord {
	return b.chord
}

// Listen invokes fn on every keydown until the context ends.
func (b *Binding) Listen(ctx context.Context, fn func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-b.hk.Keydown():
			if !ok {
				return
			}
			fn()
		}
	}
}

// Unregister releases the chord.
func (b *Binding) Unregister() error {
	return b.hk.Unregister()
}
