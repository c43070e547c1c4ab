package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"osureporter/bot/internal/api/handler"
	"osureporter/bot/internal/config"
	"osureporter/bot/internal/format"
	"osureporter/bot/internal/forum"
	"osureporter/bot/internal/models"
	"osureporter/bot/internal/notify"
	"osureporter/bot/internal/osuapi"
	"osureporter/bot/internal/report"
	"osureporter/bot/internal/sheriff"
	"osureporter/bot/internal/storage"
)

type options struct {
	noComment bool
	noFlair   bool
	noRemove  bool
	dryRun    bool
	debug     bool
	verbose   bool
	silent    bool

	postID  string
	catchup bool
	stats   bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:           "osureporter",
		Short:         "moderation bot for r/osureport",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	root.Flags().BoolVarP(&opts.noComment, "no-comment", "c", false, "don't leave comments on submissions")
	root.Flags().BoolVarP(&opts.noFlair, "no-flair", "f", false, "leave flairs unmodified")
	root.Flags().BoolVar(&opts.noRemove, "no-remove", false, "don't remove malformatted or already-restricted submissions")
	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "don't create new database records while running")
	root.Flags().BoolVarP(&opts.debug, "debug", "d", false, "equivalent to --no-comment --no-flair --dry-run --verbose")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable detailed logging")
	root.Flags().BoolVarP(&opts.silent, "silent", "s", false, "disable all logging")
	root.Flags().StringVarP(&opts.postID, "post", "p", "", "process a single submission by id and exit")
	root.Flags().BoolVar(&opts.catchup, "catchup", false, "process the newest 100 submissions without commenting, then exit")
	root.Flags().BoolVar(&opts.stats, "stats", false, "print statistics from the database and exit")
	root.MarkFlagsMutuallyExclusive("verbose", "silent")
	root.MarkFlagsMutuallyExclusive("post", "catchup", "stats")

	if err := root.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	if opts.debug {
		opts.noComment = true
		opts.noFlair = true
		opts.dryRun = true
		opts.verbose = true
	}
	setupLogging(opts)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&models.Submission{}, &models.Report{}); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the seen-cache is an optimization, not a dependency
			slog.Warn("redis unreachable, continuing without seen-cache", "error", err)
			rdb = nil
		}
	}

	store := storage.NewStorageService(db, rdb, opts.dryRun)

	if opts.stats {
		return printStats(store)
	}

	conn := forum.NewReddit(forum.RedditCredentials{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    cfg.UserAgent,
	}, cfg.Subreddit)
	osu := osuapi.NewClient(cfg.OsuAPIKey)

	reporter := report.NewService(store, conn, osu, report.Options{
		Comment:           !opts.noComment,
		Flair:             !opts.noFlair,
		Remove:            !opts.noRemove,
		RetentionDays:     cfg.RetentionDays,
		DefaultToCheating: cfg.DefaultToCheating,
	})

	if opts.postID != "" {
		slog.Debug("processing single submission", "id", opts.postID)
		sub, err := conn.Submission(ctx, opts.postID)
		if err != nil {
			return err
		}
		return reporter.Process(ctx, *sub)
	}

	if opts.catchup {
		return catchup(ctx, conn, store, reporter)
	}

	return daemon(ctx, cfg, opts, store, conn, osu, reporter)
}

// daemon is the long-running mode: the submission stream consumer, the
// sheriff ticker, and the ops HTTP server, all torn down on SIGINT/SIGTERM.
func daemon(ctx context.Context, cfg *config.Config, opts *options,
	store *storage.Service, conn *forum.Reddit, osu *osuapi.Client, reporter *report.Service) error {

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var alert sheriff.Alerter
	if cfg.TelegramToken != "" {
		notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Warn("telegram notifier unavailable", "error", err)
		} else {
			alert = notifier
		}
	}

	// The sheriff gets its own store connection so a long sweep can't hold
	// back the stream consumer.
	sweepStore := storage.NewStorageService(store.DB, store.Redis, opts.dryRun)
	sher := sheriff.NewService(sweepStore, conn, osu, alert, sheriff.Options{
		Flair:           !opts.noFlair,
		Interval:        time.Duration(cfg.CheckIntervalMinutes) * time.Minute,
		RetentionDays:   cfg.RetentionDays,
		CheckWindowDays: cfg.CheckWindowDays,
		WidenEvery:      cfg.WidenEvery,
		Operator:        cfg.Operator,
	})
	go sher.Run(ctx)

	if cfg.AdminAddr != "" {
		go serveOps(ctx, cfg.AdminAddr, store)
	}

	slog.Info("watching submission stream", "subreddit", cfg.Subreddit)
	for sub := range conn.StreamNew(ctx) {
		processOne(ctx, store, reporter, sub)
	}

	slog.Info("received interrupt, terminating")
	return nil
}

// processOne contains the per-submission fault boundary: nothing that happens
// while handling one post may take down the stream loop.
func processOne(ctx context.Context, store storage.Storage, reporter *report.Service, sub forum.Submission) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while processing submission", "id", sub.ID, "panic", r)
		}
	}()

	exists, err := store.SubmissionExists(sub.ID)
	if err != nil {
		slog.Error("seen check failed", "id", sub.ID, "error", err)
		return
	}
	if exists {
		slog.Debug("submission already processed", "id", sub.ID)
		return
	}

	if err := reporter.Process(ctx, sub); err != nil {
		slog.Warn("submission left unresolved", "id", sub.ID, "error", err)
	}
}

// catchup walks the newest submissions once, commenting suppressed, and exits.
func catchup(ctx context.Context, conn *forum.Reddit, store storage.Storage, reporter *report.Service) error {
	reporter.Opts.Comment = false

	subs, err := conn.ListNew(ctx, 100)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		processOne(ctx, store, reporter, sub)
	}
	return nil
}

func printStats(store *storage.Service) error {
	to := time.Now()
	from := to.AddDate(0, -1, 0)
	stats, err := store.Stats(from)
	if err != nil {
		return err
	}
	fmt.Println(format.StatsReport(stats, from, to))
	return nil
}

func serveOps(ctx context.Context, addr string, store *storage.Service) {
	srv := &http.Server{
		Addr:           addr,
		Handler:        handler.NewHandler(store).Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("ops server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("ops server failed", "error", err)
	}
}

func setupLogging(opts *options) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	if opts.silent {
		level = slog.Level(127) // above every level anything logs at
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
