package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voicekey-io/voicekey/internal/action"
	"github.com/voicekey-io/voicekey/internal/asr"
	"github.com/voicekey-io/voicekey/internal/command"
	"github.com/voicekey-io/voicekey/internal/fsm"
	"github.com/voicekey-io/voicekey/internal/logging"
	"github.com/voicekey-io/voicekey/internal/observe"
	"github.com/voicekey-io/voicekey/internal/resilience"
	"github.com/voicekey-io/voicekey/internal/route"
	"github.com/voicekey-io/voicekey/internal/wake"
)

// Routing reasons produced by the coordinator itself, on top of the policy
// reasons from the route package.
const (
	ReasonBelowConfidence  = "below_confidence_threshold"
	ReasonAwaitingWake     = "standby_awaiting_wake_phrase"
	ReasonStandbyIgnores   = "standby_ignores_speech"
	ReasonStateNotAccepted = "state_not_accepting_speech"
	ReasonEmptyLiteral     = "empty_literal"
)

// Diagnostic codes for degraded-to-no-op control requests and unbound
// commands.
const (
	DiagRedundantControl = "redundant_control"
	DiagUnboundCommand   = "unbound_command"
)

// Config wires a Coordinator. Mode, Parser, Filter, Watchdog and Dispatcher
// are required; WakeDetector is required in wake-word mode.
type Config struct {
	Mode         fsm.Mode
	Parser       *command.Parser
	Policy       route.Policy
	Filter       *asr.ConfidenceFilter
	WakeDetector *wake.Detector
	Watchdog     *Watchdog
	Dispatcher   *Dispatcher
	Customs      map[string]command.Custom

	// FormatLiteral post-processes literal text before typing (trailing
	// space, sentence capitalization). Nil means verbatim.
	FormatLiteral func(string) string

	// LogTranscripts opts into raw transcript text in logs and updates.
	LogTranscripts bool

	Logger  *slog.Logger
	Metrics *observe.Metrics
}

// Coordinator is the single serialization point of the runtime. Every input
// source funnels into one of its methods; each call holds the lock for the
// full decide-transition-enqueue sequence, so state reads, transitions and
// dispatch ordering can never interleave.
type Coordinator struct {
	mu        sync.Mutex
	cfg       Config
	machine   *fsm.Machine
	broadcast *Broadcaster

	pausedReason string
}

func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Parser == nil || cfg.Filter == nil || cfg.Watchdog == nil || cfg.Dispatcher == nil {
		return nil, fmt.Errorf("coordinator: parser, filter, watchdog and dispatcher are required")
	}
	if cfg.Mode == fsm.ModeWakeWord && cfg.WakeDetector == nil {
		return nil, fmt.Errorf("coordinator: wake_word mode requires a wake detector")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.Default()
	}

	machine, err := fsm.NewMachine(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return &Coordinator{cfg: cfg, machine: machine, broadcast: NewBroadcaster()}, nil
}

// HotSettings carries the runtime settings a config reload may retune on a
// live coordinator. Nil fields keep the current value.
type HotSettings struct {
	Parser              *command.Parser
	Policy              *route.Policy
	WakeDetector        *wake.Detector
	ConfidenceThreshold *float64
	InactivityTimeout   *time.Duration
	WakeWindowTimeout   *time.Duration
	LogTranscripts      *bool
}

// Reconfigure applies hot settings under the coordinator lock, so an
// in-flight transcript sees either the old or the new configuration, never a
// mix.
func (c *Coordinator) Reconfigure(hs HotSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hs.Parser != nil {
		c.cfg.Parser = hs.Parser
	}
	if hs.Policy != nil {
		c.cfg.Policy = *hs.Policy
	}
	if hs.WakeDetector != nil {
		c.cfg.WakeDetector = hs.WakeDetector
	}
	if hs.ConfidenceThreshold != nil {
		c.cfg.Filter.SetThreshold(*hs.ConfidenceThreshold)
	}
	if hs.InactivityTimeout != nil {
		c.cfg.Watchdog.SetInactivityTimeout(*hs.InactivityTimeout)
	}
	if hs.WakeWindowTimeout != nil {
		c.cfg.Watchdog.SetWakeWindowTimeout(*hs.WakeWindowTimeout)
	}
	if hs.LogTranscripts != nil {
		c.cfg.LogTranscripts = *hs.LogTranscripts
	}
}

// Updates subscribes to the published update stream.
func (c *Coordinator) Updates() <-chan Update {
	return c.broadcast.Subscribe()
}

// State reads the current runtime state.
func (c *Coordinator) State() fsm.State {
	return c.machine.State()
}

// Mode reads the configured mode.
func (c *Coordinator) Mode() fsm.Mode {
	return c.machine.Mode()
}

// Status is a point-in-time snapshot for IPC status replies.
type Status struct {
	State            fsm.State
	Mode             fsm.Mode
	PausedReason     string
	WakeTimeouts     int64
	InactivityPauses int64
	DroppedFinals    int64
}

// Snapshot reports the current runtime status.
func (c *Coordinator) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	wakeTimeouts, inactivityPauses := c.cfg.Watchdog.Counters()
	return Status{
		State:            c.machine.State(),
		Mode:             c.machine.Mode(),
		PausedReason:     c.pausedReason,
		WakeTimeouts:     wakeTimeouts,
		InactivityPauses: inactivityPauses,
		DroppedFinals:    c.cfg.Filter.Dropped(),
	}
}

// Start moves the machine out of initializing. In continuous mode the
// session begins listening immediately.
func (c *Coordinator) Start() (Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := Update{}
	r, err := c.machine.Apply(fsm.EventInitialized)
	if err != nil {
		return Update{}, err
	}
	u.Transitions = append(u.Transitions, r)

	if c.machine.Mode() == fsm.ModeContinuous {
		r, err = c.machine.Apply(fsm.EventContinuousStart)
		if err != nil {
			return Update{}, err
		}
		u.Transitions = append(u.Transitions, r)
		c.cfg.Watchdog.ArmForMode(fsm.ModeContinuous)
	}
	return c.publish(u), nil
}

// FailStart records a fatal initialization error.
func (c *Coordinator) FailStart(cause error) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := Update{Diagnostic: &Diagnostic{Code: "init_failed", Message: cause.Error()}}
	if r, err := c.machine.Apply(fsm.EventInitFailed); err == nil {
		u.Transitions = append(u.Transitions, r)
	}
	return c.publish(u)
}

// OnTranscript handles one recognizer result. Partials only refresh the
// activity timers; finals run the full filter, parse, route, dispatch
// sequence.
func (c *Coordinator) OnTranscript(ctx context.Context, t asr.Transcript) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.machine.State()

	if !t.Final {
		if state == fsm.StateListening {
			c.cfg.Watchdog.OnActivity()
		}
		return c.publish(Update{Partial: true})
	}

	u := Update{}
	if c.cfg.LogTranscripts {
		u.RoutedText = t.Text
	}

	if !c.cfg.Filter.Accept(t) {
		c.cfg.Metrics.DroppedTranscripts.Add(ctx, 1)
		u.RouteReason = ReasonBelowConfidence
		return c.publish(u)
	}

	parsed := c.cfg.Parser.Parse(t.Text)
	u.ParseKind = parsed.Kind
	u.CommandID = parsed.CommandID

	decision := c.cfg.Policy.Evaluate(state, parsed)
	u.RouteAllowed = decision.Allowed
	u.RouteReason = decision.Reason
	if !decision.Allowed {
		return c.publish(u)
	}

	if parsed.Kind == command.KindSystem {
		return c.handleSystemLocked(u, parsed.CommandID)
	}

	switch state {
	case fsm.StateStandby:
		return c.handleStandbySpeechLocked(u, t.Text)
	case fsm.StateListening:
		return c.handleListeningFinalLocked(u, parsed)
	default:
		u.RouteAllowed = false
		u.RouteReason = ReasonStateNotAccepted
		return c.publish(u)
	}
}

// OnSpeechActivity feeds voice-gate onsets into the activity timers without
// publishing an update.
func (c *Coordinator) OnSpeechActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine.State() == fsm.StateListening {
		c.cfg.Watchdog.OnActivity()
	}
}

// PollTimers checks the armed safety timer, applying its transition when
// expired. The caller runs this on a ticker.
func (c *Coordinator) PollTimers(ctx context.Context) (Update, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Watchdog.Poll() {
	case TimeoutWakeWindow:
		c.cfg.Metrics.WakeTimeouts.Add(ctx, 1)
		return c.applyTimerLocked(fsm.EventWindowTimeout, "")
	case TimeoutInactivity:
		c.cfg.Metrics.InactivityPauses.Add(ctx, 1)
		return c.applyTimerLocked(fsm.EventInactivityTimeout, "inactivity")
	default:
		return Update{}, false
	}
}

func (c *Coordinator) applyTimerLocked(event fsm.Event, pausedReason string) (Update, bool) {
	state := c.machine.State()
	if !fsm.Allowed(c.machine.Mode(), state, event) {
		// Timer expiry raced a transition out of listening; nothing to do.
		return Update{}, false
	}

	r, err := c.machine.Apply(event)
	if err != nil {
		return Update{}, false
	}
	if pausedReason != "" {
		c.pausedReason = pausedReason
	}
	return c.publish(Update{Transitions: []fsm.Result{r}}), true
}

// Toggle handles the toggle hotkey: it engages or disengages listening in a
// mode-appropriate way, and resumes when paused.
func (c *Coordinator) Toggle() Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.machine.State()
	mode := c.machine.Mode()

	if state == fsm.StatePaused {
		return c.applyControlLocked(Update{}, fsm.EventResumeRequested)
	}

	var event fsm.Event
	switch {
	case state == fsm.StateStandby && mode == fsm.ModeWakeWord:
		event = fsm.EventWakeDetected
	case state == fsm.StateStandby && mode == fsm.ModeToggle:
		event = fsm.EventToggleOn
	case state == fsm.StateStandby && mode == fsm.ModeContinuous:
		event = fsm.EventContinuousStart
	case state == fsm.StateListening && mode == fsm.ModeWakeWord:
		event = fsm.EventWindowTimeout
	case state == fsm.StateListening:
		event = fsm.EventToggleOff
	default:
		return c.publish(Update{Diagnostic: &Diagnostic{
			Code:    DiagRedundantControl,
			Message: fmt.Sprintf("toggle ignored in state %s", state),
		}})
	}
	return c.applyControlLocked(Update{}, event)
}

// Pause handles an explicit pause request from the hotkey or IPC.
func (c *Coordinator) Pause() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyControlLocked(Update{}, fsm.EventPauseRequested)
}

// Resume handles an explicit resume request from the hotkey or IPC.
func (c *Coordinator) Resume() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyControlLocked(Update{}, fsm.EventResumeRequested)
}

// Stop begins shutdown from the hotkey, IPC, or the stop phrase.
func (c *Coordinator) Stop() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyControlLocked(Update{}, fsm.EventStopRequested)
}

// OnRuntimeError applies the safety fallback for a failed operation.
func (c *Coordinator) OnRuntimeError(code resilience.Code, retriesExhausted bool) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.machine.State()
	info := resilience.InfoFor(code)
	u := Update{Diagnostic: &Diagnostic{
		Code:        string(code),
		Message:     info.Title,
		Remediation: info.Remediation,
	}}

	fallback := resilience.DecideFallback(code, state, retriesExhausted)
	if fallback.Reason != "" && state == fsm.StatePaused {
		c.pausedReason = fallback.Reason
	}
	if fallback.ForcePause && fsm.Allowed(c.machine.Mode(), state, fallback.Event) {
		if r, err := c.machine.Apply(fallback.Event); err == nil {
			u.Transitions = append(u.Transitions, r)
			c.cfg.Watchdog.Disarm()
			c.pausedReason = fallback.Reason
		}
	}
	return c.publish(u)
}

// Shutdown drains the action queue and completes the terminal transition.
// The dispatcher drain runs outside the lock so a slow final action cannot
// wedge status queries.
func (c *Coordinator) Shutdown(drainTimeout time.Duration) (DrainResult, Update) {
	c.mu.Lock()
	if fsm.Allowed(c.machine.Mode(), c.machine.State(), fsm.EventStopRequested) {
		_, _ = c.machine.Apply(fsm.EventStopRequested)
	}
	c.cfg.Watchdog.Disarm()
	c.mu.Unlock()

	drain := c.cfg.Dispatcher.Shutdown(drainTimeout)

	c.mu.Lock()
	u := Update{}
	if r, err := c.machine.Apply(fsm.EventShutdownComplete); err == nil {
		u.Transitions = append(u.Transitions, r)
	}
	u = c.publish(u)
	c.mu.Unlock()

	c.broadcast.Close()
	return drain, u
}

// handleSystemLocked maps an allowed system phrase to its control event.
func (c *Coordinator) handleSystemLocked(u Update, id string) Update {
	switch id {
	case command.SystemPause:
		u = c.applyControlLocked(u, fsm.EventPauseRequested)
		if c.machine.State() == fsm.StatePaused {
			c.pausedReason = "pause phrase"
		}
		return u
	case command.SystemResume:
		return c.applyControlLocked(u, fsm.EventResumeRequested)
	case command.SystemStop:
		return c.applyControlLocked(u, fsm.EventStopRequested)
	default:
		u.Diagnostic = &Diagnostic{Code: DiagUnboundCommand, Message: fmt.Sprintf("unknown system phrase %q", id)}
		return c.publish(u)
	}
}

// applyControlLocked applies a control event, degrading a redundant request
// to a published no-op instead of an error.
func (c *Coordinator) applyControlLocked(u Update, event fsm.Event) Update {
	state := c.machine.State()
	if !fsm.Allowed(c.machine.Mode(), state, event) {
		u.Diagnostic = &Diagnostic{
			Code:    DiagRedundantControl,
			Message: fmt.Sprintf("%s ignored in state %s", event, state),
		}
		return c.publish(u)
	}

	r, err := c.machine.Apply(event)
	if err != nil {
		u.Diagnostic = &Diagnostic{Code: DiagRedundantControl, Message: err.Error()}
		return c.publish(u)
	}
	u.Transitions = append(u.Transitions, r)

	switch r.To {
	case fsm.StateListening:
		c.cfg.Watchdog.ArmForMode(c.machine.Mode())
	case fsm.StatePaused, fsm.StateShuttingDown:
		c.cfg.Watchdog.Disarm()
	case fsm.StateStandby:
		c.cfg.Watchdog.Disarm()
		if r.Event == fsm.EventResumeRequested {
			c.pausedReason = ""
		}
	}
	return c.publish(u)
}

// handleStandbySpeechLocked scores standby speech against the wake phrase.
// The wake utterance itself is consumed, never typed.
func (c *Coordinator) handleStandbySpeechLocked(u Update, text string) Update {
	if c.machine.Mode() != fsm.ModeWakeWord || c.cfg.WakeDetector == nil {
		u.RouteReason = ReasonStandbyIgnores
		return c.publish(u)
	}

	match := c.cfg.WakeDetector.Detect(text)
	u.WakeScore = match.Score
	if !match.Matched {
		u.RouteReason = ReasonAwaitingWake
		return c.publish(u)
	}

	u.WakeDetected = true
	r, err := c.machine.Apply(fsm.EventWakeDetected)
	if err != nil {
		u.Diagnostic = &Diagnostic{Code: DiagRedundantControl, Message: err.Error()}
		return c.publish(u)
	}
	u.Transitions = append(u.Transitions, r)
	c.cfg.Watchdog.ArmForMode(fsm.ModeWakeWord)
	return c.publish(u)
}

// handleListeningFinalLocked runs the dispatch path for one final while
// listening: listening -> processing, enqueue, processing -> listening.
func (c *Coordinator) handleListeningFinalLocked(u Update, parsed command.Result) Update {
	c.cfg.Watchdog.OnActivity()

	r, err := c.machine.Apply(fsm.EventSpeechReceived)
	if err != nil {
		u.Diagnostic = &Diagnostic{Code: DiagRedundantControl, Message: err.Error()}
		return c.publish(u)
	}
	u.Transitions = append(u.Transitions, r)

	req, buildErr := c.buildRequest(parsed)
	switch {
	case buildErr != nil:
		u.Diagnostic = &Diagnostic{Code: DiagUnboundCommand, Message: buildErr.Error()}
	case req.Kind == "":
		u.RouteReason = ReasonEmptyLiteral
	default:
		if err := c.cfg.Dispatcher.Enqueue(req); err != nil {
			u.Diagnostic = &Diagnostic{Code: DiagUnboundCommand, Message: err.Error()}
		} else {
			u.Dispatched = true
			u.CommandID = req.CommandID
		}
	}

	if r, err := c.machine.Apply(fsm.EventFinalHandled); err == nil {
		u.Transitions = append(u.Transitions, r)
	}
	return c.publish(u)
}

// buildRequest turns a parse result into an action. A zero request means
// there is nothing to dispatch.
func (c *Coordinator) buildRequest(parsed command.Result) (action.Request, error) {
	switch parsed.Kind {
	case command.KindCommand:
		return action.ForCommand(parsed.CommandID, c.cfg.Customs)
	case command.KindText:
		text := parsed.Literal
		if c.cfg.FormatLiteral != nil {
			text = c.cfg.FormatLiteral(text)
		}
		if text == "" {
			return action.Request{}, nil
		}
		return action.TypeTextRequest(text), nil
	default:
		return action.Request{}, fmt.Errorf("unroutable parse kind %q", parsed.Kind)
	}
}

// publish stamps mode and state, logs, and broadcasts. Callers hold the
// lock.
func (c *Coordinator) publish(u Update) Update {
	u.Mode = c.machine.Mode()
	u.State = c.machine.State()
	u = c.broadcast.Publish(u)

	attrs := []any{
		"seq", u.Seq,
		"state", string(u.State),
	}
	if u.Partial {
		attrs = append(attrs, "partial", true)
	}
	if u.RouteReason != "" {
		attrs = append(attrs, "route", u.RouteReason)
	}
	if u.CommandID != "" {
		attrs = append(attrs, "command", u.CommandID)
	}
	if u.RoutedText != "" {
		attrs = append(attrs, "text", logging.Transcript(u.RoutedText, c.cfg.LogTranscripts))
	}
	if u.Diagnostic != nil {
		attrs = append(attrs, "diagnostic", u.Diagnostic.Code)
	}
	c.cfg.Logger.Debug("runtime update", attrs...)
	return u
}
