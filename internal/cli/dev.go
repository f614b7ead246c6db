package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uncovr/unc/internal/api"
	apihttp "github.com/uncovr/unc/internal/api/http"
	"github.com/uncovr/unc/internal/cliutil"
	"github.com/uncovr/unc/internal/config"
	"github.com/uncovr/unc/internal/engine"
	"github.com/uncovr/unc/internal/runtime"
	"github.com/uncovr/unc/internal/tui"
)

// EnvMetricsAddr enables the status and metrics endpoint for dev sessions.
const EnvMetricsAddr = "UNC_METRICS_ADDR"

var newAPIServer = apihttp.NewServer

func newDevCmd(ctx *context) *cobra.Command {
	var (
		jsonOutput  bool
		board       bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the cargo watcher and the Tailwind watcher until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.loadSettings()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			dev := settings.Dev
			if board && jsonOutput {
				return errors.New("--ui and --json cannot be combined")
			}
			if board && !cliutil.IsTerminal(cmd.OutOrStdout()) {
				return errors.New("--ui requires a terminal")
			}

			reg := ctx.registry(runtime.Options{StopTimeout: dev.StopTimeout.Duration})
			spawner, ok := reg[dev.Runtime]
			if !ok {
				return fmt.Errorf("unknown runtime %q", dev.Runtime)
			}

			workDir := filepath.Dir(dev.CargoToml)
			primary := watcherCommand(runtime.RolePrimary, dev.Primary, workDir)
			secondary := watcherCommand(runtime.RoleSecondary, dev.Secondary, workDir)
			if board {
				// The board owns the terminal; watcher output is discarded.
				primary.Inherit = false
				secondary.Inherit = false
			}

			sessionCtx, cancelSession := stdcontext.WithCancel(cmd.Context())
			defer cancelSession()

			events := make(chan engine.Event, 64)
			sup := engine.NewSupervisor(engine.Config{
				Spawner:          spawner,
				Probe:            ctx.toolProber(secondary.Path),
				Secondary:        config.TailwindProbe{Path: dev.CargoToml},
				Signals:          ctx.signals,
				Events:           events,
				Logger:           logger,
				PrimaryTool:      primaryTool(dev.Primary),
				PrimaryCommand:   primary,
				SecondaryRunner:  secondary.Path,
				SecondaryCommand: secondary,
				PollInterval:     dev.PollInterval.Duration,
				SettleDelay:      dev.SettleDelay.Duration,
			})
			logger.Debug("dev session configured", "session", sup.Session(), "runtime", dev.Runtime, "cargoToml", dev.CargoToml)

			tracker := api.NewTracker()
			if !cmd.Flags().Changed("metrics-addr") {
				if value := strings.TrimSpace(os.Getenv(EnvMetricsAddr)); value != "" {
					metricsAddr = value
				}
			}
			stopServer := func() error { return nil }
			if metricsAddr != "" {
				stopServer, err = startObserver(cmd, metricsAddr, tracker)
				if err != nil {
					return err
				}
			}

			var (
				handle    func(engine.Event)
				closeView = func() error { return nil }
			)
			if board {
				ui := tui.New(tui.WithWatcherNames(primary.Name, secondary.Name), tui.WithQuit(cancelSession))
				uiErr := make(chan error, 1)
				go func() { uiErr <- ui.Run(cmd.Context()) }()
				handle = func(evt engine.Event) { ui.EventSink() <- evt }
				closeView = func() error {
					ui.CloseEvents()
					ui.Stop()
					return <-uiErr
				}
			} else if jsonOutput {
				handle = newJSONPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()).handle
			} else {
				printer := newStatusPrinter(cmd.OutOrStdout(), cliutil.NewStyles(cmd.OutOrStdout()), time.Now())
				printer.header()
				handle = printer.handle
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				for evt := range events {
					tracker.Apply(evt)
					handle(evt)
				}
			}()

			out := sup.Run(sessionCtx)
			close(events)
			<-done
			tracker.Finish(out)
			if err := closeView(); err != nil {
				logger.Warn("watcher board failed", "err", err)
			}

			if err := stopServer(); err != nil {
				logger.Warn("status server shutdown failed", "err", err)
			}
			return out.AsError()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit session events as JSON lines")
	cmd.Flags().BoolVar(&board, "ui", false, "Show an interactive watcher board instead of status lines")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /api/v1/status on this address (or set "+EnvMetricsAddr+")")
	return cmd
}

// watcherCommand builds a runtime command from a configured argv.
func watcherCommand(role runtime.Role, argv []string, dir string) runtime.Command {
	cmd := runtime.Command{Role: role, Dir: dir, Inherit: true}
	if len(argv) == 0 {
		return cmd
	}
	cmd.Path = argv[0]
	cmd.Args = append([]string(nil), argv[1:]...)
	cmd.Name = filepath.Base(argv[0])
	for _, arg := range argv {
		if strings.Contains(arg, "tailwind") {
			cmd.Name = "tailwind"
			break
		}
	}
	if dir == "." {
		cmd.Dir = ""
	}
	return cmd
}

// primaryTool returns the installable tool the primary command depends on.
func primaryTool(argv []string) string {
	if len(argv) >= 2 && filepath.Base(argv[0]) == "cargo" && argv[1] == "watch" {
		return "cargo-watch"
	}
	return ""
}

func startObserver(cmd *cobra.Command, addr string, tracker *api.Tracker) (func() error, error) {
	server, err := newAPIServer(apihttp.Config{Addr: addr, Status: tracker})
	if err != nil {
		return nil, err
	}
	serverCtx, cancel := stdcontext.WithCancel(stdcontext.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(serverCtx)
	}()

	readyTimer := time.NewTimer(200 * time.Millisecond)
	defer readyTimer.Stop()
	select {
	case err := <-errCh:
		cancel()
		if err == nil {
			err = errors.New("status server exited")
		}
		return nil, fmt.Errorf("start status server: %w", err)
	case <-readyTimer.C:
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "status and metrics on http://%s\n", server.Addr())

	return func() error {
		cancel()
		err := <-errCh
		if err != nil && !errors.Is(err, stdcontext.Canceled) && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, nil
}
