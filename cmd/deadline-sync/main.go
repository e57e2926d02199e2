package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deadline_sync/internal/config"
	"deadline_sync/internal/domain"
	"deadline_sync/internal/publisher"
	"deadline_sync/internal/scheduler"
	"deadline_sync/internal/service"
	"deadline_sync/internal/source/brightspace"
	"deadline_sync/internal/storage/ledger"
	"deadline_sync/internal/syllabus"
)

const (
	exitOK = iota
	exitError
	exitNotAuthenticated
)

const usage = `usage: deadline-sync [-config FILE] <command> [flags]

commands:
  sync [-dry-run] [-yes] [-watch] [-every DURATION]
                                             sync portal deadlines to reminders
  syllabus add -course NAME [-dry-run] FILE  extract dates from a course document
  status [-events]                           show session and ledger state
  reset [-force]                             clear the sync ledger (destructive)
`

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run holds everything main does so deferred cleanup happens before exit.
func run(args []string) int {
	fs := flag.NewFlagSet("deadline-sync", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitError
	}

	// Setup logger
	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return exitError
	}

	a := &app{cfg: cfg, logger: setupLogger(cfg.LogLevel)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) int {
	var err error
	switch cmd {
	case "sync":
		err = a.runSync(ctx, args)
	case "syllabus":
		err = a.runSyllabus(ctx, args)
	case "status":
		err = a.runStatus(ctx, args)
	case "reset":
		err = a.runReset(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return exitError
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrNotAuthenticated):
		fmt.Fprintf(os.Stderr, "\nSession expired or missing. Log in to the portal and save the browser state to %s.\n",
			a.cfg.Paths.SessionFile)
		return exitNotAuthenticated
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	default:
		a.logger.Error(cmd+" failed", "error", err)
		fmt.Fprintf(os.Stderr, "\n%s failed: %v\n", cmd, err)
		return exitError
	}
}

func (a *app) runSync(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "show what would be synced without creating reminders")
	yes := fs.Bool("yes", false, "create reminders without asking")
	watch := fs.Bool("watch", false, "keep running and sync at the configured sync.interval")
	every := fs.Duration("every", 0, "keep running and sync at this interval (overrides sync.interval)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	interval := watchInterval(*watch, *every, a.cfg.Sync.Interval)

	led, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	defer led.Close()

	pub, err := a.newPublisher()
	if err != nil {
		return err
	}
	defer pub.Close()

	src, err := a.newSource()
	if err != nil {
		return err
	}

	syncService := service.NewSyncService(
		src,
		led,
		pub,
		newPrompter(os.Stdin, os.Stdout),
		a.logger,
		a.cfg.Reminders,
	)

	if interval > 0 {
		opts := service.SyncOptions{DryRun: *dryRun, SkipConfirm: true}
		sched := scheduler.NewScheduler(scheduler.SyncFunc(func(ctx context.Context) (*domain.SyncStats, error) {
			return syncService.Sync(ctx, opts)
		}), interval, a.cfg.Sync.RunTimeout, a.logger)

		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	fmt.Println("Starting sync...")
	stats, err := syncService.Sync(ctx, service.SyncOptions{DryRun: *dryRun, SkipConfirm: *yes})
	if stats != nil {
		printStats(stats)
	}
	return err
}

// watchInterval picks the scheduler period for sync. Zero means run once.
func watchInterval(watch bool, every, configured time.Duration) time.Duration {
	if every > 0 {
		return every
	}
	if watch {
		return configured
	}
	return 0
}

func (a *app) runSyllabus(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "add" {
		return fmt.Errorf("usage: syllabus add -course NAME [-dry-run] FILE")
	}

	fs := flag.NewFlagSet("syllabus add", flag.ContinueOnError)
	course := fs.String("course", "", "course name the document belongs to")
	dryRun := fs.Bool("dry-run", false, "review dates without creating reminders")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NArg() != 1 || *course == "" {
		return fmt.Errorf("usage: syllabus add -course NAME [-dry-run] FILE")
	}

	led, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	defer led.Close()

	pub, err := a.newPublisher()
	if err != nil {
		return err
	}
	defer pub.Close()

	loc, err := a.cfg.Portal.Location()
	if err != nil {
		return err
	}

	syllabusService := service.NewSyllabusService(
		syllabus.NewExtractor(loc),
		newPrompter(os.Stdin, os.Stdout),
		led,
		pub,
		a.logger,
		a.cfg.Reminders,
	)

	stats, err := syllabusService.Ingest(ctx, service.IngestOptions{
		Path:   fs.Arg(0),
		Course: *course,
		DryRun: *dryRun,
	})
	if stats != nil {
		printStats(stats)
	}
	return err
}

func (a *app) runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	events := fs.Bool("events", false, "list every synced event")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("\n=== Session Status ===")
	fmt.Printf("Session: %s\n", a.sessionStatus(ctx))

	led, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	defer led.Close()

	st, err := led.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Sync Statistics ===")
	fmt.Printf("Total synced: %d\n", st.Total)
	fmt.Printf("From Brightspace: %d\n", st.ByOrigin[domain.OriginPortal])
	fmt.Printf("From Syllabus: %d\n", st.ByOrigin[domain.OriginDocument])
	fmt.Printf("Upcoming: %d\n", st.Upcoming)

	runs, err := led.ListRuns(ctx, 5)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Println("\n=== Recent Runs ===")
		for _, r := range runs {
			line := fmt.Sprintf("  #%d %s %-11s created %d", r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.ItemsCreated)
			if r.ErrorMessage != nil {
				line += " (" + *r.ErrorMessage + ")"
			}
			fmt.Println(line)
		}
	}

	if *events {
		records, err := led.ListSynced(ctx)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			fmt.Println("\n=== Synced Events ===")
		}
		now := time.Now()
		for _, r := range records {
			marker := "      "
			if r.DueDate.Before(now) {
				marker = "[PAST]"
			}
			fmt.Printf("  %s %s - %s: %s\n", marker, r.DueDate.Local().Format("Jan 2, 2006"), r.CourseName, r.Title)
		}
	}

	fmt.Println()
	return nil
}

func (a *app) sessionStatus(ctx context.Context) string {
	provider := a.newSessionProvider()
	if !provider.Exists() {
		return "Not logged in"
	}

	sess, err := provider.Load(ctx)
	if err != nil {
		a.logger.Debug("session load failed", "error", err)
		return "Could not load"
	}
	defer sess.Close()

	if provider.Valid(ctx, sess) {
		return "Valid"
	}
	return "Expired"
}

func (a *app) runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Print(`
WARNING: this clears ALL sync tracking data.

  - The next sync will re-create ALL reminders
  - Existing reminders are NOT deleted from the reminder system
  - You may end up with duplicate reminders

`)

	if !*force {
		answer, err := newPrompter(os.Stdin, os.Stdout).ask(ctx, `Type "RESET" to confirm:`, "")
		if err != nil {
			return err
		}
		if answer != "RESET" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	led, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	defer led.Close()

	if err := led.ResetAll(ctx); err != nil {
		return err
	}

	a.logger.Info("ledger reset")
	fmt.Println("Ledger cleared.")
	return nil
}

func (a *app) openLedger(ctx context.Context) (*ledger.Ledger, error) {
	return ledger.Open(ctx, ledger.Config{
		Driver: a.cfg.Ledger.Driver,
		Path:   a.cfg.Ledger.Path,
		DSN:    a.cfg.Ledger.Postgres.DSN(),
	})
}

func (a *app) newPublisher() (service.Publisher, error) {
	switch a.cfg.Reminders.Sink {
	case config.SinkRabbitMQ:
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        a.cfg.RabbitMQ.URL,
			Exchange:   a.cfg.RabbitMQ.Exchange,
			RoutingKey: a.cfg.RabbitMQ.RoutingKey,
			QueueName:  a.cfg.RabbitMQ.QueueName,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		return rabbitMQ, nil
	default:
		return publisher.NewAppleReminders(a.logger), nil
	}
}

func (a *app) newSessionProvider() *brightspace.CookieSessionProvider {
	return brightspace.NewCookieSessionProvider(brightspace.SessionConfig{
		BaseURL:        a.cfg.Portal.BaseURL,
		StateFile:      a.cfg.Paths.SessionFile,
		Timeout:        a.cfg.Portal.PageTimeout,
		MaxAttempts:    a.cfg.Portal.Retry.MaxAttempts,
		InitialBackoff: a.cfg.Portal.Retry.InitialBackoff,
		MaxBackoff:     a.cfg.Portal.Retry.MaxBackoff,
	}, a.logger)
}

func (a *app) newSource() (*brightspace.Source, error) {
	loc, err := a.cfg.Portal.Location()
	if err != nil {
		return nil, err
	}

	return brightspace.New(brightspace.Config{
		BaseURL:           a.cfg.Portal.BaseURL,
		Location:          loc,
		PageTimeout:       a.cfg.Portal.PageTimeout,
		CoursePageTimeout: a.cfg.Portal.CoursePageTimeout,
	}, a.newSessionProvider(), a.logger), nil
}

func printStats(stats *domain.SyncStats) {
	if stats.DryRun {
		fmt.Println("\nDRY RUN - no reminders were created")
	}
	fmt.Printf("\nDiscovered:     %d\n", stats.Discovered)
	fmt.Printf("Already synced: %d\n", stats.AlreadySynced)
	fmt.Printf("Created:        %d\n", stats.Created)
	fmt.Printf("Failed:         %d\n", stats.Failed)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
