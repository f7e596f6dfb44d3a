package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/cmd"
	"github.com/gravitrone/replydesk/internal/config"
	"github.com/gravitrone/replydesk/internal/logging"
	"github.com/gravitrone/replydesk/internal/ui"
)

var errNotInteractive = errors.New("not a terminal; use a subcommand (see replydesk --help)")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Force truecolor so hex colors render correctly
	// Must be set before any lipgloss style initialization
	os.Setenv("COLORTERM", "truecolor")
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:   "replydesk",
		Short: "replydesk - comment reply operator console",
		Long:  "replydesk: browse scraped notes, generate reply suggestions from a knowledge base, and watch lead metrics.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadEnv(".env")
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(debug)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().BoolVar(&debug, "debug", false, "log at debug level")

	root.AddCommand(cmd.KBCmd())
	root.AddCommand(cmd.NotesCmd())
	root.AddCommand(cmd.ReplyCmd())
	root.AddCommand(cmd.BulkCmd())
	root.AddCommand(cmd.LeadsCmd())
	root.AddCommand(cmd.MonitorCmd())
	root.AddCommand(cmd.ConfigCmd())
	return root
}

func runTUI(debug bool) error {
	if !isInteractiveTerminal(os.Stdin) || !isInteractiveTerminal(os.Stdout) {
		return errNotInteractive
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	timeout, _ := cfg.Timeout()

	logger, err := logging.New(logging.Options{Path: cfg.LogFile, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		logger = logging.Nop()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting tui", zap.String("base_url", cfg.BaseURL))

	client := api.NewClient(cfg.BaseURL, timeout).WithLogger(logger)
	app := ui.NewApp(client, cfg, logger)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func isInteractiveTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
