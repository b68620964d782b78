package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"chatterm/internal/api"
	"chatterm/internal/chat"
	"chatterm/internal/config"
	"chatterm/internal/conversation"
	"chatterm/internal/display"
	"chatterm/internal/logging"
	"chatterm/internal/reveal"
	"chatterm/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	profile  string
	endpoint string
	debug    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		display.Error(err.Error())
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "chatterm",
		Short: "Terminal chat client with a word-by-word reply reveal",
		Long: `chatterm sends each message to a chat endpoint and reveals the reply word by
word: first the assistant's internal thought, then its answer.`,
		Example: `  chatterm                                  # Start interactive mode
  chatterm ask "What is a goroutine?"       # One message, printed to stdout
  chatterm set endpoint http://localhost:5000/chat
  chatterm --profile staging config`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(g)
		},
	}

	root.PersistentFlags().StringVar(&g.profile, "profile", "", "Use a named config profile")
	root.PersistentFlags().StringVar(&g.endpoint, "endpoint", "", "Override the chat endpoint URL")
	root.PersistentFlags().BoolVarP(&g.debug, "debug", "d", false, "Log at debug level")

	root.AddCommand(
		newAskCmd(g),
		newConfigCmd(g),
		newSetCmd(g),
		newProfilesCmd(g),
		newVersionCmd(),
	)
	return root
}

// ─── wiring ─────────────────────────────────────────────────────────────────

// loadConfig reads the active profile and applies flag overrides.
func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.profile)
	if err != nil {
		return nil, err
	}
	if g.endpoint != "" {
		cfg.Endpoint = g.endpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logPath returns the configured log file. With --debug and no file
// configured, logs go to the config directory.
func logPath(cfg *config.Config, debug bool) string {
	if cfg.LogFile != "" || !debug {
		return cfg.LogFile
	}
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chatterm.log")
}

func newController(cfg *config.Config, logger *zap.Logger, extra ...chat.Option) *chat.Controller {
	opts := []chat.Option{
		chat.WithScheduler(reveal.New(cfg.RevealInterval())),
		chat.WithAnswerDelay(cfg.AnswerDelay()),
		chat.WithTargeting(chat.ParseTargeting(cfg.Targeting)),
		chat.WithLogger(logger),
	}
	return chat.New(conversation.NewStore(), api.NewClient(cfg), append(opts, extra...)...)
}

// ─── interactive ────────────────────────────────────────────────────────────

func runInteractive(g *globalFlags) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, err := logging.New(logPath(cfg, g.debug), g.debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return tui.Run(tui.Options{
		Version:    version,
		Config:     cfg,
		Controller: newController(cfg, logger),
		Logger:     logger,
	})
}

// ─── ask ────────────────────────────────────────────────────────────────────

func newAskCmd(g *globalFlags) *cobra.Command {
	var verbose, plain bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the revealed reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			logger, err := logging.New(logPath(cfg, g.debug), g.debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			var extra []chat.Option
			if verbose {
				errOut := cmd.ErrOrStderr()
				extra = append(extra, chat.WithStateHook(func(seq uint64, s chat.State) {
					fmt.Fprintf(errOut, "  %s\n", display.StateLabel(s.String()))
				}))
			}

			c := newController(cfg, logger, extra...)
			markdown := !plain && cmd.OutOrStdout() == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
			return runAsk(cmd.Context(), c, strings.Join(args, " "), cmd.OutOrStdout(), markdown)
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print send state transitions to stderr")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print answers without markdown rendering")
	return cmd
}

// runAsk performs one send and prints each record once it is finalized,
// in conversation order. It returns after the reveal ends.
func runAsk(ctx context.Context, c *chat.Controller, text string, out io.Writer, markdown bool) error {
	store := c.Store()
	transcript := display.NewTranscript(out, markdown)

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-store.Changes():
				transcript.Flush(store.Snapshot())
			case <-stop:
				return
			}
		}
	}()
	halt := func() {
		close(stop)
		<-stopped
	}

	a, err := c.Send(ctx, text)
	if err != nil {
		halt()
		if errors.Is(err, chat.ErrEmptyInput) {
			return fmt.Errorf("nothing to send: %w", err)
		}
		return err
	}
	a.Wait()
	halt()
	transcript.Flush(store.Snapshot())

	if err := a.Err(); err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	if transcript.Printed() < store.Len() {
		return errors.New("reveal interrupted")
	}
	return nil
}

// ─── config ─────────────────────────────────────────────────────────────────

func newConfigCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.profile)
			if err != nil {
				return err
			}
			if g.endpoint != "" {
				cfg.Endpoint = g.endpoint
			}
			printConfig(cfg)
			return nil
		},
	}
}

func printConfig(cfg *config.Config) {
	notSet := display.Dim + "(not set)" + display.Reset

	display.Header("chatterm Configuration")

	display.Info("Profile:", config.ProfileName(cfg.Profile))

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = notSet
	}
	display.Info("Endpoint:", endpoint)
	display.Info("Reveal interval:", display.FormatDuration(cfg.RevealInterval()))
	display.Info("Answer delay:", display.FormatDuration(cfg.AnswerDelay()))
	display.Info("Timeout:", cfg.Timeout().String())

	targeting := cfg.Targeting
	if targeting == "" {
		targeting = config.TargetingRecord
	}
	display.Info("Targeting:", targeting)

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = notSet
	}
	display.Info("Log file:", logFile)
	fmt.Println()
}

// ─── set ────────────────────────────────────────────────────────────────────

func newSetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a configuration value",
		Long: `Change a configuration value in the active profile.

Keys:
  endpoint   Chat endpoint URL            (e.g. http://127.0.0.1:5000/chat)
  interval   Reveal tick in milliseconds  (default 10)
  delay      Answer reveal delay in ms    (default 20)
  timeout    Request timeout in seconds   (default 300)
  targeting  record or role               (default record)
  log-file   Path of the JSON log file, empty to disable`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.profile)
			if err != nil {
				return err
			}
			if err := applySetting(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("%s set to %s", args[0], args[1]))
			return nil
		},
	}
}

func applySetting(cfg *config.Config, key, value string) error {
	switch key {
	case "endpoint":
		cfg.Endpoint = value
	case "interval":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("interval must be a positive number of milliseconds, got %q", value)
		}
		cfg.RevealIntervalMS = n
	case "delay":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("delay must be zero or more milliseconds, got %q", value)
		}
		cfg.AnswerDelayMS = n
	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout must be a positive number of seconds, got %q", value)
		}
		cfg.TimeoutSeconds = n
	case "targeting":
		cfg.Targeting = strings.ToLower(value)
	case "log-file":
		cfg.LogFile = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: endpoint, interval, delay, timeout, targeting, log-file)", key)
	}
	return nil
}

// ─── profiles ───────────────────────────────────────────────────────────────

func newProfilesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List config profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}

			display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

			if len(profiles) == 0 {
				display.Warn("No profiles found.")
				return nil
			}

			for _, p := range profiles {
				marker := " "
				if p == config.ProfileName(g.profile) {
					marker = display.Green + "●" + display.Reset
				}
				fmt.Printf("  %s %s\n", marker, p)
			}
			fmt.Println()
			return nil
		},
	}
}

// ─── version ────────────────────────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatterm %s\n", version)
		},
	}
}
