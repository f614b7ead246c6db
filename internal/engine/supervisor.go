package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/uncovr/unc/internal/config"
	"github.com/uncovr/unc/internal/metrics"
	"github.com/uncovr/unc/internal/runtime"
)

const (
	defaultPollInterval = 100 * time.Millisecond
)

// ErrPrimaryLost is reported when the primary watcher can no longer be
// observed.
var ErrPrimaryLost = errors.New("primary watcher process was lost")

// ToolProbe checks for and installs external tools.
type ToolProbe interface {
	Available(ctx context.Context, tool string) bool
	Install(ctx context.Context, tool string) error
}

// SecondarySource reports whether the secondary watcher is configured. A nil
// config means it is absent.
type SecondarySource interface {
	ReadSecondary() (*config.WatcherConfig, error)
}

// Config wires a Supervisor to its collaborators.
type Config struct {
	Spawner   runtime.Spawner
	Probe     ToolProbe
	Secondary SecondarySource
	Signals   SignalInstaller
	Events    chan<- Event
	Logger    *log.Logger

	// PrimaryTool is checked, and installed if missing, before the primary
	// watcher is spawned. Empty skips the check.
	PrimaryTool    string
	PrimaryCommand runtime.Command
	// SecondaryRunner must be available for the secondary watcher to run.
	SecondaryRunner string
	// SecondaryCommand is the command prefix; the configured arguments are
	// appended to it.
	SecondaryCommand runtime.Command

	PollInterval time.Duration
	SettleDelay  time.Duration
	SessionID    string
}

// Supervisor runs one dev session: it spawns the primary watcher and the
// optional secondary watcher, waits until the user cancels or the primary
// exits, and tears both down with the secondary stopped first.
type Supervisor struct {
	cfg     Config
	events  chan<- Event
	logger  *log.Logger
	session string
	signals SignalInstaller

	sleep func(context.Context, time.Duration) error
}

// NewSupervisor constructs a supervisor. Missing optional collaborators fall
// back to OS signal handling and the default logger.
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PrimaryCommand.Role == "" {
		cfg.PrimaryCommand.Role = runtime.RolePrimary
	}
	if cfg.SecondaryCommand.Role == "" {
		cfg.SecondaryCommand.Role = runtime.RoleSecondary
	}
	s := &Supervisor{
		cfg:     cfg,
		events:  cfg.Events,
		logger:  cfg.Logger,
		session: cfg.SessionID,
		signals: cfg.Signals,
		sleep:   sleepWithContext,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.session == "" {
		s.session = uuid.NewString()
	}
	if s.signals == nil {
		s.signals = OSSignals{}
	}
	s.logger = s.logger.With("session", s.session)
	return s
}

// Session returns the session identifier attached to events and logs.
func (s *Supervisor) Session() string {
	return s.session
}

// Run executes the session and returns its outcome. No watcher process is
// left running when Run returns. Cancelling ctx is equivalent to an
// interrupt.
func (s *Supervisor) Run(ctx context.Context) (out Outcome) {
	defer func() {
		metrics.ObserveSession(out.Kind.String())
		s.logger.Debug("dev session finished", "outcome", out.String())
	}()

	cancel := &Cancellation{}

	if err := s.ensurePrimaryTool(ctx); err != nil {
		s.sendEvent(runtime.RolePrimary, EventTypeFailed, err.Error(), 0, ReasonInstallFailed, err)
		return fatal(err)
	}
	secondaryCmd := s.secondaryCommand(ctx)

	// Without the handler an interrupt could not be honoured, so nothing is
	// spawned until it is in place.
	stop, err := s.signals.Install(cancel)
	if err != nil {
		err = fmt.Errorf("install signal handler: %w", err)
		s.sendEvent("", EventTypeFailed, err.Error(), 0, ReasonSignalFailure, err)
		return fatal(err)
	}
	defer stop()

	primary, err := s.spawn(ctx, s.cfg.PrimaryCommand)
	if err != nil {
		err = fmt.Errorf("start primary watcher: %w", err)
		s.sendEvent(runtime.RolePrimary, EventTypeFailed, err.Error(), 0, ReasonSpawnFailure, err)
		return fatal(err)
	}
	primaryGuard := NewGuard(primary)
	defer primaryGuard.Release()

	var secondaryGuard *Guard
	if secondaryCmd != nil {
		h, err := s.spawn(ctx, *secondaryCmd)
		if err != nil {
			s.warn(runtime.RoleSecondary, "secondary watcher failed to start, continuing without it", ReasonSpawnFailure, err)
		} else {
			secondaryGuard = NewGuard(h)
			// Deferred after the primary guard so it is released first.
			defer secondaryGuard.Release()
			if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
				cancel.Cancel()
			}
		}
	}

	msg := fmt.Sprintf("watching: %s", s.cfg.PrimaryCommand.Name)
	if secondaryGuard.Holds() {
		msg = fmt.Sprintf("watching: %s + %s", s.cfg.PrimaryCommand.Name, s.cfg.SecondaryCommand.Name)
	}
	s.sendEvent("", EventTypeReady, msg, 0, ReasonSessionReady, nil)

	return s.poll(ctx, cancel, primaryGuard, secondaryGuard)
}

func (s *Supervisor) poll(ctx context.Context, cancel *Cancellation, primary, secondary *Guard) Outcome {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			cancel.Cancel()
		}
		if cancel.Cancelled() {
			return s.shutdownCancelled(primary, secondary)
		}

		h := primary.Handle()
		if h == nil {
			s.sendEvent(runtime.RolePrimary, EventTypeFailed, ErrPrimaryLost.Error(), 0, ReasonPrimaryLost, ErrPrimaryLost)
			return fatal(ErrPrimaryLost)
		}
		status, exited, err := h.TryWait()
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrPrimaryLost, err)
			s.sendEvent(runtime.RolePrimary, EventTypeFailed, err.Error(), h.Pid(), ReasonPrimaryLost, err)
			return fatal(err)
		}
		if exited {
			return s.shutdownExited(primary, secondary, status)
		}

		s.checkSecondary(secondary)

		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
	}
}

func (s *Supervisor) shutdownCancelled(primary, secondary *Guard) Outcome {
	s.sendEvent("", EventTypeStopping, "shutting down...", 0, ReasonCancelled, nil)
	if h := secondary.Take(); h != nil {
		s.kill(h, ReasonCancelled)
	}
	if h := primary.Take(); h != nil {
		s.kill(h, ReasonCancelled)
	}
	s.sendEvent("", EventTypeStopped, "stopped", 0, ReasonCancelled, nil)
	return cleanShutdown()
}

func (s *Supervisor) shutdownExited(primary, secondary *Guard, status runtime.ExitStatus) Outcome {
	pid := 0
	if h := primary.Handle(); h != nil {
		pid = h.Pid()
	}
	s.sendEvent(runtime.RolePrimary, EventTypeExited, fmt.Sprintf("%s exited with %s", s.cfg.PrimaryCommand.Name, status), pid, ReasonPrimaryExited, nil)

	if h := secondary.Take(); h != nil {
		s.kill(h, ReasonPrimaryExited)
	}

	if status.Success() {
		return cleanShutdown()
	}
	out := watcherFailed(status.Code)
	s.sendEvent(runtime.RolePrimary, EventTypeFailed, out.AsError().Error(), pid, ReasonPrimaryExited, out.AsError())
	return out
}

// checkSecondary drops a secondary watcher that exited on its own. Its exit
// status never affects the session outcome.
func (s *Supervisor) checkSecondary(secondary *Guard) {
	h := secondary.Handle()
	if h == nil {
		return
	}
	status, exited, err := h.TryWait()
	if err == nil && !exited {
		return
	}
	// The process has been reaped; there is nothing left to terminate.
	secondary.Take()
	if err != nil {
		s.warn(runtime.RoleSecondary, "secondary watcher can no longer be observed", ReasonSecondaryStopped, err)
		return
	}
	s.warn(runtime.RoleSecondary, fmt.Sprintf("%s exited with %s", s.cfg.SecondaryCommand.Name, status), ReasonSecondaryStopped, nil)
}

func (s *Supervisor) kill(h runtime.Handle, reason string) {
	pid := h.Pid()
	s.sendEvent(h.Role(), EventTypeStopping, fmt.Sprintf("stopping %s watcher", h.Role()), pid, reason, nil)
	status := h.TerminateAndWait()
	s.logger.Debug("watcher stopped", "role", h.Role(), "pid", pid, "status", status.String())
	s.sendEvent(h.Role(), EventTypeStopped, fmt.Sprintf("%s watcher stopped", h.Role()), pid, reason, nil)
}

func (s *Supervisor) spawn(ctx context.Context, cmd runtime.Command) (runtime.Handle, error) {
	s.sendEvent(cmd.Role, EventTypeStarting, fmt.Sprintf("starting %s", cmd), 0, "", nil)
	h, err := s.cfg.Spawner.Spawn(ctx, cmd)
	if err != nil {
		metrics.ObserveSpawn(string(cmd.Role), false)
		return nil, err
	}
	metrics.ObserveSpawn(string(cmd.Role), true)
	s.logger.Debug("watcher started", "role", cmd.Role, "pid", h.Pid(), "command", cmd.String())
	s.sendEvent(cmd.Role, EventTypeRunning, fmt.Sprintf("%s started", cmd.Name), h.Pid(), "", nil)
	return observedHandle{Handle: h}, nil
}

func (s *Supervisor) ensurePrimaryTool(ctx context.Context) error {
	tool := s.cfg.PrimaryTool
	if tool == "" || s.cfg.Probe == nil {
		return nil
	}
	if s.cfg.Probe.Available(ctx, tool) {
		return nil
	}
	s.sendEvent(runtime.RolePrimary, EventTypeStarting, fmt.Sprintf("%s is not installed, installing...", tool), 0, ReasonToolMissing, nil)
	if err := s.cfg.Probe.Install(ctx, tool); err != nil {
		return fmt.Errorf("install %s: %w", tool, err)
	}
	s.sendEvent(runtime.RolePrimary, EventTypeStarting, fmt.Sprintf("%s installed", tool), 0, ReasonInstalled, nil)
	return nil
}

// secondaryCommand returns the secondary watcher to spawn, or nil when it is
// disabled for this session.
func (s *Supervisor) secondaryCommand(ctx context.Context) *runtime.Command {
	if s.cfg.Secondary == nil {
		return nil
	}
	wc, err := s.cfg.Secondary.ReadSecondary()
	if err != nil {
		s.warn(runtime.RoleSecondary, "could not read secondary watcher config, continuing without it", ReasonConfigError, err)
		return nil
	}
	if wc == nil || !wc.Enabled {
		return nil
	}
	if runner := s.cfg.SecondaryRunner; runner != "" && s.cfg.Probe != nil && !s.cfg.Probe.Available(ctx, runner) {
		s.warn(runtime.RoleSecondary, fmt.Sprintf("%s enabled but %s not found", s.cfg.SecondaryCommand.Name, runner), ReasonRunnerMissing, nil)
		return nil
	}

	cmd := s.cfg.SecondaryCommand
	cmd.Args = append(append([]string(nil), cmd.Args...), wc.Args...)
	return &cmd
}

func (s *Supervisor) warn(role runtime.Role, message, reason string, err error) {
	s.logger.Debug(message, "role", role, "reason", reason, "err", err)
	s.sendEvent(role, EventTypeWarning, message, 0, reason, err)
}

// observedHandle records terminations in metrics. Releasing a watcher that
// already exited signals nothing and is not counted.
type observedHandle struct {
	runtime.Handle
}

func (h observedHandle) TerminateAndWait() runtime.ExitStatus {
	if _, exited, err := h.TryWait(); err == nil && !exited {
		metrics.ObserveTermination(string(h.Role()))
	}
	return h.Handle.TerminateAndWait()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
