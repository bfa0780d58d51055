package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandPause   Command = "pause"
	CommandResume  Command = "resume"
	CommandStop    Command = "stop"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandToggle:  {},
	CommandPause:   {},
	CommandResume:  {},
	CommandStop:    {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

var validModes = map[string]struct{}{
	"wake_word":  {},
	"toggle":     {},
	"continuous": {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	// Mode overrides modes.default from the config for this invocation.
	Mode     string
	ShowHelp bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--mode":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--mode requires a value")
			}
			if _, ok := validModes[args[i]]; !ok {
				return Parsed{}, fmt.Errorf("unknown mode: %s (expected wake_word, toggle, or continuous)", args[i])
			}
			parsed.Mode = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	if parsed.Mode != "" && parsed.Command != CommandRun {
		return Parsed{}, fmt.Errorf("--mode only applies to the run command")
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  run       Start the voice session in the foreground
  toggle    Toggle listening on/off in the running session
  pause     Pause the running session
  resume    Resume a paused session
  stop      Stop the running session
  status    Print current state and mode
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/voicekey/config.jsonc)
  --mode MODE     Activation mode for run: wake_word, toggle, or continuous
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
