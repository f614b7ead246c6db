package cli

import (
	stdcontext "context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/uncovr/unc/internal/cliutil"
	"github.com/uncovr/unc/internal/config"
	"github.com/uncovr/unc/internal/engine"
	"github.com/uncovr/unc/internal/gitutil"
	"github.com/uncovr/unc/internal/probe"
	"github.com/uncovr/unc/internal/runtime"
	_ "github.com/uncovr/unc/internal/runtime/process"
	"github.com/uncovr/unc/internal/scaffold"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{
		configPath: "unc.yaml",
		logLevel:   cliutil.LogLevelFromEnv(),
		registry:   runtime.NewRegistry,
	}

	root := &cobra.Command{
		Use:   "unc",
		Short: "Scaffold and develop uncovr web projects",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.logger(cmd.ErrOrStderr())
			return err
		},
	}

	root.PersistentFlags().StringVar(&ctx.configPath, "config", ctx.configPath, "Path to unc settings file")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", ctx.logLevel, "Log level (debug, info, warn, error); defaults to $"+cliutil.EnvLogLevel)

	root.AddCommand(newDevCmd(ctx))
	root.AddCommand(newCreateAppCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cliutil.RedactSecrets(err.Error()))
		os.Exit(1)
	}
}

// context carries flag values and collaborators shared by subcommands. Tests
// replace the collaborators.
type context struct {
	configPath string
	logLevel   string

	log      *log.Logger
	registry func(runtime.Options) runtime.Registry
	probe    toolProbe
	signals  engine.SignalInstaller
	fetcher  scaffold.Fetcher
	git      scaffold.GitInitializer
}

type toolProbe interface {
	Available(ctx stdcontext.Context, tool string) bool
	Install(ctx stdcontext.Context, tool string) error
}

func (c *context) logger(w io.Writer) (*log.Logger, error) {
	if c.log != nil {
		return c.log, nil
	}
	l, err := cliutil.NewLogger(w, c.logLevel)
	if err != nil {
		return nil, err
	}
	c.log = l
	return l, nil
}

func (c *context) loadSettings() (*config.Settings, error) {
	return config.Load(c.configPath)
}

// toolProber returns the availability probe. Runners that are not built-in
// tools are checked with --version.
func (c *context) toolProber(runners ...string) toolProbe {
	if c.probe != nil {
		return c.probe
	}
	var extra []probe.Tool
	for _, name := range runners {
		if name == "" {
			continue
		}
		if _, known := probe.New().Tool(name); !known {
			extra = append(extra, probe.Tool{Name: name, Check: []string{name, "--version"}})
		}
	}
	return probe.New(probe.WithTools(extra...))
}

func (c *context) gitInitializer(p toolProbe) scaffold.GitInitializer {
	if c.git != nil {
		return c.git
	}
	return gitutil.New(p)
}

func (c *context) templateFetcher() scaffold.Fetcher {
	if c.fetcher != nil {
		return c.fetcher
	}
	return scaffold.NewDownloader()
}
