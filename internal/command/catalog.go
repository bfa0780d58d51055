package command

// System phrase command IDs. These are exact-match only and are routed by
// policy, never dispatched as keyboard actions.
const (
	SystemPause  = "pause_voice_key"
	SystemResume = "resume_voice_key"
	SystemStop   = "voice_key_stop"
)

// SpecialPhrases maps each control phrase to its system command ID. The map
// is consulted before any other parse stage and never participates in fuzzy
// matching.
var SpecialPhrases = map[string]string{
	"pause voice key":  SystemPause,
	"resume voice key": SystemResume,
	"voice key stop":   SystemStop,
}

// Catalog returns the builtin command definitions. Window-management entries
// carry the window_commands gate and stay invisible until that feature is
// enabled.
func Catalog() []Definition {
	return []Definition{
		{ID: "new_line", Phrase: "new line", Aliases: []string{"enter"}, Channel: ChannelCommand},
		{ID: "tab", Phrase: "tab", Channel: ChannelCommand},
		{ID: "space", Phrase: "space", Channel: ChannelCommand},
		{ID: "backspace", Phrase: "backspace", Channel: ChannelCommand},
		{ID: "delete", Phrase: "delete", Channel: ChannelCommand},
		{ID: "left", Phrase: "left", Aliases: []string{"arrow left"}, Channel: ChannelCommand},
		{ID: "right", Phrase: "right", Aliases: []string{"arrow right"}, Channel: ChannelCommand},
		{ID: "up", Phrase: "up", Aliases: []string{"arrow up"}, Channel: ChannelCommand},
		{ID: "down", Phrase: "down", Aliases: []string{"arrow down"}, Channel: ChannelCommand},
		{ID: "escape", Phrase: "escape", Channel: ChannelCommand},
		{ID: "control_a", Phrase: "control a", Channel: ChannelCommand},
		{ID: "control_c", Phrase: "control c", Channel: ChannelCommand},
		{ID: "control_l", Phrase: "control l", Channel: ChannelCommand},
		{ID: "control_v", Phrase: "control v", Channel: ChannelCommand},
		{ID: "control_x", Phrase: "control x", Channel: ChannelCommand},
		{ID: "control_z", Phrase: "control z", Channel: ChannelCommand},
		{ID: "scratch_that", Phrase: "scratch that", Channel: ChannelCommand},
		{ID: "capital_hello", Phrase: "capital hello", Channel: ChannelCommand},
		{ID: "all_caps_hello", Phrase: "all caps hello", Channel: ChannelCommand},

		{ID: "maximize_window", Phrase: "maximize window", Channel: ChannelCommand, Gate: GateWindowCommands},
		{ID: "minimize_window", Phrase: "minimize window", Channel: ChannelCommand, Gate: GateWindowCommands},
		{ID: "close_window", Phrase: "close window", Channel: ChannelCommand, Gate: GateWindowCommands},
		{ID: "switch_window", Phrase: "switch window", Channel: ChannelCommand, Gate: GateWindowCommands},
		{ID: "copy_that", Phrase: "copy that", Channel: ChannelCommand, Gate: GateWindowCommands},
		{ID: "paste_that", Phrase: "paste that", Channel: ChannelCommand, Gate: GateWindowCommands},
		{ID: "cut_that", Phrase: "cut that", Channel: ChannelCommand, Gate: GateWindowCommands},
	}
}
