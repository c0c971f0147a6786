package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/teemow/inboxtriage/internal/calendar"
	"github.com/teemow/inboxtriage/internal/config"
	"github.com/teemow/inboxtriage/internal/confirm"
	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/google"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/llm"
	"github.com/teemow/inboxtriage/internal/search"
	"github.com/teemow/inboxtriage/internal/server"
	"github.com/teemow/inboxtriage/internal/slack"
	"github.com/teemow/inboxtriage/internal/store"
	"github.com/teemow/inboxtriage/internal/triage"
)

type triageOptions struct {
	maxResults  int64
	confirmMode string
	dbPath      string
	metricsAddr string
	dryRun      bool
}

func newTriageCmd() *cobra.Command {
	var opts triageOptions

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Process the most recent inbox messages",
		Long: `Fetch the most recent inbox messages and take each one through the
triage pipeline: draft a reply, look up the web for factual questions,
extract meetings, alert Slack about urgent mail, store the message and then
reply automatically (simple acknowledgements) or after confirmation.

Confirmation modes:
  prompt   ask on the terminal for every complex email (default)
  defer    process the whole batch first, then ask for each pending email
  approve  send every reply without asking
  decline  never send replies to complex email`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globalOpts.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-results") {
				cfg.MaxResults = opts.maxResults
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = opts.dbPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			mode, err := confirm.ParseMode(opts.confirmMode)
			if err != nil {
				return err
			}

			return runTriage(cmd.Context(), cfg, mode, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64Var(&opts.maxResults, "max-results", config.DefaultMaxResults, "Number of recent emails to process. Can also use "+config.EnvMaxResults+" env var.")
	cmd.Flags().StringVar(&opts.confirmMode, "confirm", string(confirm.ModePrompt), "Confirmation mode for complex email: prompt, defer, approve or decline")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path. Can also use "+config.EnvDBPath+" env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics and health endpoints on this address during the run (e.g. :9090)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log replies and calendar events instead of sending or creating them")

	return cmd
}

func runTriage(ctx context.Context, cfg *config.Config, mode confirm.Mode, opts triageOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig = instrConfig.ForRun(instrumentation.RunAttributes{
		ConfirmMode: string(mode),
		DryRun:      opts.dryRun,
		MaxResults:  cfg.MaxResults,
	}, opts.metricsAddr != "")
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	health := server.NewHealthChecker()
	if opts.metricsAddr != "" {
		stop, err := startMetricsServer(opts.metricsAddr, provider, health, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	deps, closeDeps, err := buildDeps(ctx, cfg, mode, opts.dryRun, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	dispatcher, err := triage.NewDispatcher(deps,
		triage.WithMaxResults(cfg.MaxResults),
		triage.WithLogger(logger),
		triage.WithMetrics(provider.Metrics()),
		triage.WithAudit(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
	)
	if err != nil {
		return err
	}

	health.SetReady(true)
	report, runErr := dispatcher.Run(ctx)
	if report != nil {
		health.ObserveRun(len(report.Outcomes), len(dispatcher.Pending()))
		printReport(out, report)
	}
	if runErr != nil {
		return runErr
	}

	if mode == confirm.ModeDefer {
		if err := resolvePending(ctx, dispatcher, out); err != nil {
			return err
		}
		health.ObserveRun(len(report.Outcomes), len(dispatcher.Pending()))
	}
	return nil
}

// buildDeps wires the production collaborators. The returned func releases
// what needs closing.
func buildDeps(ctx context.Context, cfg *config.Config, mode confirm.Mode, dryRun bool, logger *slog.Logger) (triage.Deps, func(), error) {
	noop := func() {}

	tokens := google.NewTokenStore(config.CacheDir())
	auth := google.NewAuthenticator(google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret), tokens)
	httpClient, err := auth.HTTPClient(ctx)
	if errors.Is(err, google.ErrNoToken) {
		return triage.Deps{}, noop, fmt.Errorf("no Google token found at %s; run `inboxtriage auth` first", tokens.Path())
	}
	if err != nil {
		return triage.Deps{}, noop, err
	}

	mail, err := gmail.NewClient(ctx, cfg.FallbackName, logger, option.WithHTTPClient(httpClient))
	if err != nil {
		return triage.Deps{}, noop, err
	}

	cal, err := calendar.NewClient(ctx, logger, option.WithHTTPClient(httpClient))
	if err != nil {
		return triage.Deps{}, noop, err
	}

	gen, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return triage.Deps{}, noop, err
	}
	assistant := llm.NewAssistant(gen, cfg.Timezone)

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		return triage.Deps{}, noop, err
	}

	deps := triage.Deps{
		Mailbox:   mail,
		Profile:   mail,
		Drafter:   assistant,
		Meetings:  assistant,
		Calendar:  cal,
		Store:     st,
		Confirmer: newConfirmer(mode, os.Stdin, os.Stdout),
	}

	var optErr error
	cfg.Search().WhenSome(func(sc config.SearchConfig) {
		s, err := search.NewClient(ctx, sc.APIKey, sc.EngineID)
		if err != nil {
			optErr = errors.Join(optErr, err)
			return
		}
		deps.Searcher = s
	})
	cfg.Slack().WhenSome(func(sc config.SlackConfig) {
		n, err := slack.NewNotifier(sc.Token, sc.ChannelID, logger)
		if err != nil {
			optErr = errors.Join(optErr, err)
			return
		}
		deps.Alerter = n
	})
	if optErr != nil {
		st.Close()
		return triage.Deps{}, noop, optErr
	}
	if deps.Searcher == nil {
		logger.Info("web search disabled", "reason", "GOOGLE_API_KEY or SEARCH_ENGINE_ID not set")
	}
	if deps.Alerter == nil {
		logger.Info("slack alerts disabled", "reason", "SLACK_BOT_TOKEN or SLACK_CHANNEL_ID not set")
	}

	if dryRun {
		deps.Mailbox = dryRunMailbox{Mailbox: mail, logger: logger}
		deps.Calendar = dryRunScheduler{logger: logger}
	}

	return deps, func() { st.Close() }, nil
}

// newConfirmer maps a mode onto a Confirmer. In defer mode every complex
// email is parked and answered after the batch.
func newConfirmer(mode confirm.Mode, in io.Reader, out io.Writer) triage.Confirmer {
	switch mode {
	case confirm.ModeApprove:
		return confirm.Fixed(triage.Approved)
	case confirm.ModeDecline:
		return confirm.Fixed(triage.Declined)
	case confirm.ModeDefer:
		return confirm.Fixed(triage.Deferred)
	default:
		return confirm.NewPrompter(in, out)
	}
}

// resolvePending asks about every parked email when stdin is a terminal,
// and lists them otherwise.
func resolvePending(ctx context.Context, d *triage.Dispatcher, out io.Writer) error {
	pending := d.Pending()
	if len(pending) == 0 {
		return nil
	}

	if !confirm.IsTerminal(os.Stdin) {
		fmt.Fprintf(out, "\n%d replies await confirmation (stdin is not a terminal):\n", len(pending))
		for _, p := range pending {
			fmt.Fprintf(out, "  %s  %s\n", p.Token, p.Email.Subject)
		}
		return nil
	}

	outcomes, err := confirm.ResolveAll(ctx, d, confirm.NewPrompter(os.Stdin, out), pending)
	for _, o := range outcomes {
		printOutcome(out, o)
	}
	return err
}

func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker, logger *slog.Logger) (func(), error) {
	ms, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  health,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := ms.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ms.Bound():
	case err := <-errCh:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(server.DefaultShutdownTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := ms.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}, nil
}

func printReport(w io.Writer, r *triage.RunReport) {
	fmt.Fprintf(w, "Run %s: %d emails in %s\n", r.RunID, len(r.Outcomes), r.Finished.Sub(r.Started).Round(time.Millisecond))
	for _, o := range r.Outcomes {
		printOutcome(w, o)
	}
}

func printOutcome(w io.Writer, o *triage.Outcome) {
	status := "not sent"
	switch {
	case o.Sent:
		status = "sent"
	case o.Pending.IsSome():
		status = "awaiting confirmation"
	}

	fmt.Fprintf(w, "  [%s] %q: %s", o.Path, o.Subject, status)
	if o.Urgent {
		fmt.Fprint(w, ", urgent")
		if o.Alerted {
			fmt.Fprint(w, " (alerted)")
		}
	}
	if o.MeetingsCreated > 0 {
		fmt.Fprintf(w, ", %d meetings created", o.MeetingsCreated)
	}
	if o.MeetingsSkipped > 0 {
		fmt.Fprintf(w, ", %d meetings skipped", o.MeetingsSkipped)
	}
	if len(o.Errors) > 0 {
		fmt.Fprintf(w, ", %d errors", len(o.Errors))
	}
	fmt.Fprintln(w)
}
