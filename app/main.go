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

	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/api"
	"github.com/lysyi3m/minute-foot/app/cfg"
	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/engine"
	"github.com/lysyi3m/minute-foot/app/news"
	"github.com/lysyi3m/minute-foot/app/scrape"
	"github.com/lysyi3m/minute-foot/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if c == nil {
		// help was shown
		return
	}

	setupLogger(c.Debug)

	if err := run(c); err != nil {
		slog.Error("Minute Foot stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func run(c *cfg.Cfg) error {
	slog.Info("Starting Minute Foot", "version", c.Version)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", c.DBPath, "schema_version", version, "dirty", dirty)

	stateRepo := database.NewMatchStateRepository(db)
	publishedRepo := database.NewPublishedRepository(db)
	stateStore := database.NewStateRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	destinations := announce.NewDestinationCache(c.DestinationsDir, httpClient)
	if err := destinations.Run(); err != nil {
		return fmt.Errorf("failed to load destinations: %w", err)
	}
	defer destinations.Close()
	slog.Info("Destinations loaded", "dir", c.DestinationsDir, "count", destinations.GetConfigCount())

	newSession := func() (scrape.Session, error) {
		s, err := scrape.NewHTTPSession(scrape.SessionOptions{
			UserAgent:         c.UserAgent,
			RequestsPerSecond: c.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	sessions := scrape.NewSessionManager(newSession)
	defer func() {
		if err := sessions.Close(); err != nil {
			slog.Warn("Failed to close scrape session", "error", err)
		}
	}()

	liveSource := scrape.NewSource(scrape.SourceOptions{
		LiveURL:       c.LiveURL,
		FinishedURL:   c.FinishedURL,
		BaseURL:       c.SiteBaseURL,
		FetchTimeout:  c.GetFetchTimeout(),
		EnrichTimeout: c.GetEnrichTimeout(),
	})

	eng := engine.New(engine.Deps{
		Live:      liveSource,
		News:      newsSource(c),
		States:    stateRepo,
		Published: publishedRepo,
		NewsStore: publishedRepo,
		Global:    stateStore,
		Resolver:  destinations,
		Announcer: announce.NewAnnouncer(stateStore, c.DeliveryConcurrency),
		NewsPause: c.GetNewsPublishPause(),
	})

	factory := tasks.NewTaskFactory(tasks.TaskDeps{
		Engine:       eng,
		Sessions:     sessions,
		NewSession:   newSession,
		Destinations: destinations,
	})

	slog.Info("Starting background scheduler", "workers", c.WorkerCount)
	scheduler := tasks.NewScheduler(factory, tasks.JobsFromConfig(), tasks.SchedulerOptions{
		WorkerCount:  c.WorkerCount,
		CycleTimeout: c.GetCycleTimeout(),
	})
	scheduler.Start()

	handler := api.NewHandler(stateRepo, publishedRepo, publishedRepo, stateStore, destinations, scheduler, c.Version)
	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("Background scheduler stopped", "sessions_started", sessions.Generations())

	return runErr
}

// newsSource prefers the RSS feed when one is configured.
func newsSource(c *cfg.Cfg) engine.NewsSource {
	extractor := news.NewContentExtractor(c.NewsContentLimit)

	if c.NewsFeedURL != "" {
		return news.NewFeedSource(news.FeedSourceOptions{
			FeedURL:        c.NewsFeedURL,
			FetchTimeout:   c.GetFetchTimeout(),
			ArticleTimeout: c.GetEnrichTimeout(),
		}, extractor)
	}

	return news.NewHTMLSource(news.HTMLSourceOptions{
		ListURL:        c.NewsURL,
		BaseURL:        c.NewsBaseURL,
		FetchTimeout:   c.GetFetchTimeout(),
		ArticleTimeout: c.GetEnrichTimeout(),
	}, extractor)
}
