package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voicekey-io/voicekey/internal/action"
	"github.com/voicekey-io/voicekey/internal/asr"
	"github.com/voicekey-io/voicekey/internal/audio"
	"github.com/voicekey-io/voicekey/internal/cli"
	"github.com/voicekey-io/voicekey/internal/command"
	"github.com/voicekey-io/voicekey/internal/config"
	"github.com/voicekey-io/voicekey/internal/fsm"
	"github.com/voicekey-io/voicekey/internal/hotkey"
	"github.com/voicekey-io/voicekey/internal/hypr"
	"github.com/voicekey-io/voicekey/internal/indicator"
	"github.com/voicekey-io/voicekey/internal/ipc"
	"github.com/voicekey-io/voicekey/internal/observe"
	"github.com/voicekey-io/voicekey/internal/output"
	"github.com/voicekey-io/voicekey/internal/resilience"
	"github.com/voicekey-io/voicekey/internal/route"
	"github.com/voicekey-io/voicekey/internal/runtime"
	"github.com/voicekey-io/voicekey/internal/transcript"
	"github.com/voicekey-io/voicekey/internal/vad"
	"github.com/voicekey-io/voicekey/internal/wake"
)

const (
	timerPollInterval = 200 * time.Millisecond
	// micRecoveryIdle is the re-probe cadence once the reconnect schedule is
	// exhausted and the session has been forced into paused.
	micRecoveryIdle = 5 * time.Second
)

// session holds one running voice session's wired components.
type session struct {
	logger     *slog.Logger
	metrics    *observe.Metrics
	coord      *runtime.Coordinator
	dispatcher *runtime.Dispatcher
	recognizer *asr.Router
	watcher    *config.Watcher

	// registry and pack are retained so a hot reload can rebuild the parser
	// with the same command set.
	registry *command.Registry
	pack     config.Pack

	configPath string
	packPath   string

	// cfg and indicator are swapped on hot config reloads; formatLiteral and
	// the update consumer read them per use.
	cfgMu     sync.RWMutex
	cfg       config.Config
	indicator indicator.Controller
}

// ui reads the current indicator under the config lock; reloads of the ui
// section swap it.
func (s *session) ui() indicator.Controller {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.indicator
}

func (r Runner) commandRun(ctx context.Context, parsed cli.Parsed, loaded config.Loaded, logger *slog.Logger) int {
	cfg := loaded.Config
	if parsed.Mode != "" {
		cfg.Modes.Default = parsed.Mode
		if _, err := config.Validate(cfg); err != nil {
			fmt.Fprintf(r.Stderr, "error: --mode %s: %v\n", parsed.Mode, err)
			return 1
		}
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a voicekey session is already running; use toggle, pause, or stop")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	packPath, err := config.ResolvePackPath("")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	pack, err := config.LoadPack(packPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	sess, err := newSession(cfg, loaded.Path, packPath, pack, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if err := sess.run(ctx, listener); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newSession(cfg config.Config, configPath, packPath string, pack config.Pack, logger *slog.Logger) (*session, error) {
	gates := []command.Gate{}
	if cfg.Features.WindowCommands {
		gates = append(gates, command.GateWindowCommands)
	}
	registry, err := command.NewRegistry(command.Catalog(), gates...)
	if err != nil {
		return nil, err
	}
	if err := command.RegisterCustoms(registry, pack.Customs); err != nil {
		return nil, err
	}

	parser, err := buildParser(registry, cfg, pack)
	if err != nil {
		return nil, err
	}

	var detector *wake.Detector
	if cfg.Wake.Enabled {
		detector = wake.NewDetector(cfg.Wake.Phrase, cfg.Wake.Sensitivity)
	}
	window := wake.NewWindow(time.Duration(cfg.Wake.WindowTimeoutSeconds)*time.Second, time.Now)
	watchdog := runtime.NewWatchdog(window, time.Duration(cfg.Modes.InactivityPauseSeconds)*time.Second, time.Now)

	injector := output.NewInjector(cfg.Output.ClipboardCmd.Argv, cfg.Output.PasteShortcut, logger)
	actions := action.NewRouter(injector, hypr.Windows{})
	metrics := observe.Default()

	sess := &session{
		logger:     logger,
		metrics:    metrics,
		registry:   registry,
		pack:       pack,
		configPath: configPath,
		packPath:   packPath,
		cfg:        cfg,
	}

	sess.dispatcher = runtime.NewDispatcher(actions.Dispatch, sess.onActionError, logger, metrics)

	recognizer, err := buildRecognizer(cfg, logger)
	if err != nil {
		return nil, err
	}
	sess.recognizer = recognizer

	coord, err := runtime.NewCoordinator(runtime.Config{
		Mode:           fsm.Mode(cfg.Modes.Default),
		Parser:         parser,
		Policy:         route.Policy{ResumePhrase: cfg.Modes.PausedResumePhrase},
		Filter:         asr.NewConfidenceFilter(cfg.Typing.ConfidenceThreshold, nil),
		WakeDetector:   detector,
		Watchdog:       watchdog,
		Dispatcher:     sess.dispatcher,
		Customs:        pack.CustomsByID(),
		FormatLiteral:  sess.formatLiteral,
		LogTranscripts: cfg.Privacy.LogTranscripts,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		return nil, err
	}
	sess.coord = coord

	sess.indicator = indicator.NewHyprNotify(indicator.Config{
		Enable:         cfg.UI.Notifications,
		Backend:        cfg.UI.Backend,
		DesktopAppName: cfg.UI.DesktopAppName,
		ErrorTimeoutMS: cfg.UI.ErrorTimeoutMS,
		SoundEnable:    cfg.UI.AudioFeedback,
	}, logger)

	sess.watcher = config.NewWatcher(config.DefaultWatchInterval, configPath, packPath)
	return sess, nil
}

// buildParser assembles the parser for the current typing, fuzzy, and
// feature settings; hot reloads call it again against the same registry.
func buildParser(registry *command.Registry, cfg config.Config, pack config.Pack) (*command.Parser, error) {
	opts := []command.ParserOption{command.WithSuffix(cfg.Typing.CommandSuffix)}
	if cfg.Fuzzy.Enabled {
		opts = append(opts, command.WithFuzzy(command.NewFuzzyMatcher(cfg.Fuzzy.Threshold)))
	}
	if cfg.Features.TextExpansion {
		expander, err := command.NewSnippetExpander(pack.Snippets)
		if err != nil {
			return nil, err
		}
		opts = append(opts, command.WithSnippets(expander))
	}
	return command.NewParser(registry, opts...), nil
}

func buildRecognizer(cfg config.Config, logger *slog.Logger) (*asr.Router, error) {
	mode := asr.Mode(cfg.Recognizer.Mode)

	var stream asr.Recognizer
	if mode == asr.ModeLocal || mode == asr.ModeHybrid {
		client, err := asr.NewStreamClient(asr.StreamConfig{
			URL:          cfg.Recognizer.StreamURL,
			Model:        cfg.Recognizer.Model,
			Language:     cfg.Recognizer.Language,
			SampleRateHz: cfg.Audio.SampleRateHz,
		})
		if err != nil {
			return nil, err
		}
		stream = client
	}

	var batch asr.BatchRecognizer
	if mode == asr.ModeHybrid || mode == asr.ModeCloud {
		client, err := asr.NewBatchClient(asr.BatchConfig{
			URL:      cfg.Recognizer.BatchURL,
			Model:    cfg.Recognizer.Model,
			Language: cfg.Recognizer.Language,
			Timeout:  time.Duration(cfg.Recognizer.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		batch = client
	}

	return asr.NewRouter(mode, stream, batch, logger)
}

// run supervises every session loop until shutdown, then drains the action
// queue.
func (s *session) run(ctx context.Context, listener net.Listener) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := s.coord.Updates()
	if _, err := s.coord.Start(); err != nil {
		s.coord.FailStart(err)
		return err
	}

	g, gctx := errgroup.WithContext(runCtx)

	bindings := s.registerHotkeys(gctx, g)
	defer func() {
		for _, b := range bindings {
			_ = b.Unregister()
		}
	}()

	g.Go(func() error { return ipc.Serve(gctx, listener, s.ipcHandler()) })
	g.Go(func() error { s.dispatcher.Run(gctx); return nil })
	g.Go(func() error { return s.pumpAudio(gctx) })
	g.Go(func() error { s.pollTimers(gctx); return nil })
	g.Go(func() error { s.consumeUpdates(gctx, cancel, updates); return nil })
	g.Go(func() error { s.watchConfig(gctx); return nil })

	err := g.Wait()

	drain, _ := s.coord.Shutdown(runtime.DefaultDrainTimeout)
	s.ui().Hide(context.Background())
	s.logger.Info("session shutdown",
		"drained", drain.Drained,
		"discarded", drain.Discarded,
		"drain_timed_out", drain.TimedOut,
	)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ipcHandler maps control verbs to coordinator methods. Shutdown is not
// triggered here directly; the update consumer reacts to the shutting_down
// state so phrase, hotkey, and IPC stops all take the same path.
func (s *session) ipcHandler() ipc.Handler {
	return ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case ipc.CommandStatus:
			st := s.coord.Snapshot()
			return ipc.Response{OK: true, State: string(st.State), Mode: string(st.Mode), PausedReason: st.PausedReason}
		case ipc.CommandToggle:
			return responseFor(s.coord.Toggle())
		case ipc.CommandPause:
			return responseFor(s.coord.Pause())
		case ipc.CommandResume:
			return responseFor(s.coord.Resume())
		case ipc.CommandStop:
			return responseFor(s.coord.Stop())
		default:
			return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
		}
	})
}

func responseFor(u runtime.Update) ipc.Response {
	resp := ipc.Response{OK: true, State: string(u.State), Mode: string(u.Mode)}
	if u.Diagnostic != nil {
		resp.Message = u.Diagnostic.Message
	}
	return resp
}

// registerHotkeys binds the configured chords. A failed registration is
// surfaced as a diagnostic, not a fatal error; the rest of the session works
// without the chord.
func (s *session) registerHotkeys(ctx context.Context, g *errgroup.Group) []*hotkey.Binding {
	entries := []struct {
		name  string
		chord string
		fn    func()
	}{
		{"toggle", s.cfg.Hotkeys.Toggle, func() { s.coord.Toggle() }},
		{"pause", s.cfg.Hotkeys.Pause, s.togglePause},
		{"stop", s.cfg.Hotkeys.Stop, func() { s.coord.Stop() }},
	}

	bindings := []*hotkey.Binding{}
	for _, entry := range entries {
		if entry.chord == "" {
			continue
		}
		chord, err := hotkey.ParseChord(entry.chord)
		if err != nil {
			s.logger.Error("hotkey parse failed", "hotkey", entry.name, "chord", entry.chord, "error", err.Error())
			continue
		}
		binding, err := hotkey.Register(chord)
		if err != nil {
			s.logger.Error("hotkey register failed", "hotkey", entry.name, "chord", entry.chord, "error", err.Error())
			s.coord.OnRuntimeError(resilience.CodeHotkeyConflict, false)
			continue
		}
		bindings = append(bindings, binding)

		fn := entry.fn
		g.Go(func() error {
			binding.Listen(ctx, fn)
			return nil
		})
	}
	return bindings
}

func (s *session) togglePause() {
	if s.coord.State() == fsm.StatePaused {
		s.coord.Resume()
		return
	}
	s.coord.Pause()
}

// pollTimers drives the wake-window and inactivity watchdog.
func (s *session) pollTimers(ctx context.Context) {
	ticker := time.NewTicker(timerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.coord.PollTimers(ctx)
		}
	}
}

// consumeUpdates drives the indicator from the published update stream and
// triggers shutdown when the runtime reaches shutting_down.
func (s *session) consumeUpdates(ctx context.Context, cancel context.CancelFunc, updates <-chan runtime.Update) {
	lastState := fsm.State("")
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Diagnostic != nil && u.Diagnostic.Remediation != "" {
				s.ui().ShowError(ctx, u.Diagnostic.Message)
			}
			if u.State == lastState {
				continue
			}
			lastState = u.State

			switch u.State {
			case fsm.StateListening:
				s.ui().ShowListening(ctx)
			case fsm.StateStandby:
				s.ui().ShowStandby(ctx)
			case fsm.StatePaused:
				s.ui().ShowPaused(ctx, s.coord.Snapshot().PausedReason)
			case fsm.StateShuttingDown:
				cancel()
			}
		}
	}
}

// formatLiteral applies typing normalization, overlaying the matched per-app
// profile when the feature is on.
func (s *session) formatLiteral(text string) string {
	s.cfgMu.RLock()
	cfg := s.cfg
	s.cfgMu.RUnlock()

	typing := cfg.Typing
	if cfg.Features.PerAppProfiles && len(cfg.Profiles) > 0 {
		qctx, qcancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		win, err := hypr.QueryActiveWindow(qctx)
		qcancel()
		if err == nil {
			if _, profile, ok := config.MatchProfile(cfg, win.Class); ok {
				typing = config.ApplyProfile(typing, profile)
			}
		}
	}

	return transcript.Format(text, transcript.Options{
		TrailingSpace:       typing.TrailingSpace,
		CapitalizeSentences: typing.CapitalizeSentences,
	})
}

// onActionError feeds dispatch failures back into the safety fallback.
// Injection failures are safety-critical; anything else is logged only.
func (s *session) onActionError(req action.Request, err error) {
	s.logger.Error("action dispatch failed", "kind", string(req.Kind), "command", req.CommandID, "error", err.Error())

	var injErr *output.InjectionError
	if errors.As(err, &injErr) {
		s.coord.OnRuntimeError(resilience.CodeKeyboardBlocked, true)
	}
}

// pumpAudio owns the capture-to-recognizer path, reconnecting the microphone
// on the bounded schedule and idling in paused once it is exhausted.
func (s *session) pumpAudio(ctx context.Context) error {
	policy := resilience.MicReconnect()
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := s.captureOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			failures = 0
			continue
		}

		var devErr *audio.DeviceError
		if !errors.As(err, &devErr) {
			// Recognizer-side failure; surface and retry the whole path.
			s.coord.OnRuntimeError(resilience.CodeRecognizerUnavailable, false)
			s.metrics.CountRetry(ctx, string(resilience.CodeRecognizerUnavailable))
			if sleepCtx(ctx, time.Second) != nil {
				return nil
			}
			continue
		}

		delay, ok := policy.NextDelay(failures)
		failures++
		if !ok {
			s.coord.OnRuntimeError(resilience.CodeMicrophoneDisconnected, true)
			failures = 0
			delay = micRecoveryIdle
		} else {
			s.coord.OnRuntimeError(resilience.CodeMicrophoneDisconnected, false)
			s.metrics.CountRetry(ctx, string(resilience.CodeMicrophoneDisconnected))
		}
		if sleepCtx(ctx, delay) != nil {
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// captureOnce starts one capture stream and runs it until the device or the
// recognizer fails, or the context ends.
func (s *session) captureOnce(ctx context.Context) error {
	source, err := s.startSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = source.Stop() }()

	gate, err := s.newGate()
	if err != nil {
		return err
	}

	if s.recognizer.Streaming() {
		return s.streamLoop(ctx, source, gate)
	}
	return s.batchLoop(ctx, source, gate)
}

func (s *session) startSource(ctx context.Context) (audio.Source, error) {
	s.cfgMu.RLock()
	cfg := s.cfg
	s.cfgMu.RUnlock()

	capture := audio.CaptureConfig{SampleRateHz: cfg.Audio.SampleRateHz, ChunkMS: cfg.Audio.ChunkMS}

	if cfg.Audio.Backend == "portaudio" {
		return audio.StartPortAudio(ctx, cfg.Audio.Device, capture)
	}

	selection, err := audio.SelectDevice(ctx, cfg.Audio.Device, cfg.Audio.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" {
		s.logger.Warn("audio device fallback", "warning", selection.Warning)
	}
	return audio.StartPulse(ctx, selection.Device, capture)
}

// newGate builds the configured VAD gate. A nil gate means the VAD is
// disabled and every frame reaches the recognizer.
func (s *session) newGate() (*vadGate, error) {
	s.cfgMu.RLock()
	cfg := s.cfg
	s.cfgMu.RUnlock()

	if !cfg.VAD.Enabled {
		return nil, nil
	}

	var detector vad.Detector
	if cfg.VAD.Engine == "webrtc" {
		webrtc, err := vad.NewWebRTC(cfg.Audio.SampleRateHz, cfg.VAD.Threshold)
		if err != nil {
			return nil, err
		}
		detector = webrtc
	} else {
		detector = vad.NewEnergy(cfg.VAD.Threshold)
	}

	return &vadGate{gate: vad.NewGate(detector, time.Duration(cfg.VAD.MinSpeechMS)*time.Millisecond)}, nil
}

// streamLoop feeds gated frames into a live recognizer stream and forwards
// its transcripts to the coordinator. In hybrid mode the current utterance
// stays buffered so a stream failure can recover it through the batch
// endpoint.
func (s *session) streamLoop(ctx context.Context, source audio.Source, gate *vadGate) error {
	hybrid := s.recognizer.Mode() == asr.ModeHybrid

	stream, err := s.recognizer.OpenStream(ctx)
	if err != nil {
		if hybrid && gate != nil {
			// Stream endpoint down: serve one utterance through the batch
			// fallback before the caller retries the stream.
			if fbErr := s.pumpBatch(ctx, source, gate, err, true); fbErr != nil {
				return fbErr
			}
		}
		return err
	}
	defer func() { _ = stream.Close() }()

	events := make(chan struct{})
	go func() {
		defer close(events)
		for t := range stream.Events() {
			s.coord.OnTranscript(ctx, t)
		}
	}()

	// Current-utterance buffer for the hybrid fallback. Without a gate there
	// is no utterance boundary to buffer against.
	var pcm []int16
	rate := 0

	for {
		select {
		case <-ctx.Done():
			_ = stream.CloseSend()
			return nil
		case <-events:
			return stream.Err()
		case frame, ok := <-source.Frames():
			if !ok {
				_ = stream.CloseSend()
				return &audio.DeviceError{Code: audio.DeviceDisconnected, Device: source.Device().ID}
			}

			send := true
			if gate != nil {
				ev, gateErr := gate.gate.Process(frame)
				if gateErr != nil {
					continue
				}
				if ev.Onset {
					s.coord.OnSpeechActivity()
					pcm = pcm[:0]
				}
				if hybrid && ev.Active {
					pcm = append(pcm, frame.PCM...)
					rate = frame.Rate
				}
				if ev.Offset {
					// The stream received the whole utterance; drop the copy.
					pcm = nil
				}
				send = ev.Active
			}
			if !send {
				continue
			}
			if err := stream.Send(frame); err != nil {
				if hybrid && len(pcm) > 0 {
					s.transcribeUtterance(ctx, pcm, rate, err)
				}
				return err
			}
		}
	}
}

// batchLoop buffers one gated utterance at a time and posts it to the batch
// recognizer on speech offset.
func (s *session) batchLoop(ctx context.Context, source audio.Source, gate *vadGate) error {
	return s.pumpBatch(ctx, source, gate, nil, false)
}

// pumpBatch runs the buffered-utterance batch path. With once set it returns
// after the first transcribed utterance, as the hybrid fallback does between
// stream retries; streamErr is recorded as the fallback reason.
func (s *session) pumpBatch(ctx context.Context, source audio.Source, gate *vadGate, streamErr error, once bool) error {
	var pcm []int16
	rate := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-source.Frames():
			if !ok {
				return &audio.DeviceError{Code: audio.DeviceDisconnected, Device: source.Device().ID}
			}
			rate = frame.Rate

			active, onset, offset := true, false, false
			if gate != nil {
				ev, gateErr := gate.gate.Process(frame)
				if gateErr != nil {
					continue
				}
				active, onset, offset = ev.Active, ev.Onset, ev.Offset
			}

			if onset {
				s.coord.OnSpeechActivity()
				pcm = pcm[:0]
			}
			if active {
				pcm = append(pcm, frame.PCM...)
			}
			if offset && len(pcm) > 0 {
				s.transcribeUtterance(ctx, pcm, rate, streamErr)
				pcm = nil
				if once {
					return nil
				}
			}
		}
	}
}

// transcribeUtterance posts one buffered utterance to the batch recognizer
// and feeds the result to the coordinator.
func (s *session) transcribeUtterance(ctx context.Context, pcm []int16, rate int, streamErr error) {
	t, err := s.recognizer.TranscribeUtterance(ctx, pcm, rate, streamErr)
	if err != nil {
		s.coord.OnRuntimeError(resilience.CodeRecognizerUnavailable, false)
		return
	}
	s.coord.OnTranscript(ctx, t)
}

// vadGate wraps the gate so a nil pointer can express "VAD disabled".
type vadGate struct {
	gate *vad.Gate
}

// watchConfig polls the config and pack files. Hot-applicable changes are
// swapped into the running session; anything else logs a restart notice.
func (s *session) watchConfig(ctx context.Context) {
	_ = s.watcher.Run(ctx, func(path string) {
		if path == s.packPath {
			s.logger.Warn("command pack changed; restart the session to load it", "path", path)
			return
		}

		loaded, err := config.Load(s.configPath)
		if err != nil {
			s.logger.Error("config reload failed; keeping previous config", "error", err.Error())
			return
		}

		s.cfgMu.Lock()
		prev := s.cfg
		diff := config.Compare(prev, loaded.Config)
		if len(diff.Hot) > 0 {
			next := prev
			next.VAD = loaded.Config.VAD
			next.Wake = loaded.Config.Wake
			next.Modes.InactivityPauseSeconds = loaded.Config.Modes.InactivityPauseSeconds
			next.Modes.PausedResumePhrase = loaded.Config.Modes.PausedResumePhrase
			next.Typing = loaded.Config.Typing
			next.Fuzzy = loaded.Config.Fuzzy
			next.Privacy = loaded.Config.Privacy
			next.UI = loaded.Config.UI
			next.Profiles = loaded.Config.Profiles
			s.cfg = next

			if prev.UI != next.UI {
				s.indicator = indicator.NewHyprNotify(indicator.Config{
					Enable:         next.UI.Notifications,
					Backend:        next.UI.Backend,
					DesktopAppName: next.UI.DesktopAppName,
					ErrorTimeoutMS: next.UI.ErrorTimeoutMS,
					SoundEnable:    next.UI.AudioFeedback,
				}, s.logger)
			}
		}
		s.cfgMu.Unlock()

		if len(diff.Hot) > 0 {
			s.applyHotSettings(prev, loaded.Config)
			s.logger.Info("config change applied", "settings", diff.Hot)
		}
		if diff.RequiresRestart() {
			s.logger.Warn("config change requires a session restart", "settings", diff.Restart)
		}
	})
}

// applyHotSettings pushes reloaded settings into the live coordinator.
// VAD, profiles and typing normalization need no push: the capture gate and
// formatLiteral read the swapped config at each use.
func (s *session) applyHotSettings(prev, next config.Config) {
	hs := runtime.HotSettings{}

	if prev.Typing.CommandSuffix != next.Typing.CommandSuffix ||
		prev.Fuzzy != next.Fuzzy {
		parser, err := buildParser(s.registry, next, s.pack)
		if err != nil {
			s.logger.Error("parser rebuild failed; keeping previous parser", "error", err.Error())
		} else {
			hs.Parser = parser
		}
	}
	if prev.Typing.ConfidenceThreshold != next.Typing.ConfidenceThreshold {
		threshold := next.Typing.ConfidenceThreshold
		hs.ConfidenceThreshold = &threshold
	}
	if prev.Modes.PausedResumePhrase != next.Modes.PausedResumePhrase {
		hs.Policy = &route.Policy{ResumePhrase: next.Modes.PausedResumePhrase}
	}
	if prev.Modes.InactivityPauseSeconds != next.Modes.InactivityPauseSeconds {
		timeout := time.Duration(next.Modes.InactivityPauseSeconds) * time.Second
		hs.InactivityTimeout = &timeout
	}
	if prev.Wake.WindowTimeoutSeconds != next.Wake.WindowTimeoutSeconds {
		timeout := time.Duration(next.Wake.WindowTimeoutSeconds) * time.Second
		hs.WakeWindowTimeout = &timeout
	}
	if next.Wake.Enabled &&
		(prev.Wake.Phrase != next.Wake.Phrase || prev.Wake.Sensitivity != next.Wake.Sensitivity) {
		hs.WakeDetector = wake.NewDetector(next.Wake.Phrase, next.Wake.Sensitivity)
	}
	if prev.Privacy.LogTranscripts != next.Privacy.LogTranscripts {
		logTranscripts := next.Privacy.LogTranscripts
		hs.LogTranscripts = &logTranscripts
	}

	s.coord.Reconfigure(hs)
}
