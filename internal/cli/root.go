package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/timegrid/internal/api"
	"github.com/existflow/timegrid/internal/config"
	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/tui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	logLevel   string
	logFile    string
	logConsole bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timegrid",
	Short: "Timegrid - terminal weekly timesheet",
	Long: `Timegrid is a terminal client for the time-tracking server: record day
fractions (0, 0.5 or 1) per project in a weekly grid, browse weeks, and
export monthly reports.

Run 'timegrid' without arguments to open the interactive grid.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
		}

		logConfig := logger.Config{
			Level:    logger.ParseLevel(cfg.LogLevel),
			FilePath: cfg.LogFile,
			MaxSize:  10 * 1024 * 1024,
			Console:  cfg.LogConsole,
		}
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("timegrid started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if !client.IsLoggedIn() {
			return fmt.Errorf("not logged in, run 'timegrid auth login' first")
		}

		logger.Info("launching grid")
		p := tea.NewProgram(tui.NewModel(client), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			logger.Error("grid error", logger.F("error", err))
			return fmt.Errorf("failed to run grid: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("timegrid exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// newClient builds an API client against the configured server.
func newClient() (*api.Client, error) {
	return api.NewClient(cfg.ServerURL)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Time-tracking server base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(reportCmd)
}
