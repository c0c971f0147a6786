package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/logging"
)

// rootCmd represents the base command for the inboxtriage application
var rootCmd = &cobra.Command{
	Use:   "inboxtriage",
	Short: "Triages recent Gmail messages with an LLM",
	Long: `inboxtriage reads your most recent Gmail messages and, for each one,
drafts a reply with Gemini, alerts Slack about urgent mail, stores the
message in a local SQLite database and then either:
  - replies automatically to simple acknowledgements, or
  - asks you to confirm the reply for everything else.

Meetings mentioned in a message are added to your calendar once the reply
has been sent.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.NewLogger(os.Stderr, globalOpts.logFormat, globalOpts.debug))
	},
}

// version will be set by main
var version = "dev"

type globalOptions struct {
	envFile   string
	debug     bool
	logFormat string
}

var globalOpts globalOptions

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxtriage version %s\n" .Version}}`)

	// If no subcommand is provided, run the triage command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "triage")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.envFile, "env-file", "", "Path to a .env file (default: .env in the working directory, if present)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logFormat, "log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionCmd())
}
