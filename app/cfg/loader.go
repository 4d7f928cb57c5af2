package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath          string `long:"db-path" env:"DB_PATH" default:"./data/minute-foot.db" description:"SQLite database file"`
	DestinationsDir string `long:"destinations-dir" env:"DESTINATIONS_DIR" default:"./destinations" description:"Directory containing destination configuration files"`

	// HTTP dashboard
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Sources
	LiveURL     string `long:"live-url" env:"LIVE_URL" default:"https://www.matchendirect.fr/live-score/" description:"Live score listing page"`
	FinishedURL string `long:"finished-url" env:"FINISHED_URL" default:"https://www.matchendirect.fr/live-foot/" description:"Finished matches listing page"`
	SiteBaseURL string `long:"site-base-url" env:"SITE_BASE_URL" default:"https://www.matchendirect.fr" description:"Base URL used to resolve match detail links"`
	NewsURL     string `long:"news-url" env:"NEWS_URL" default:"https://www.maxifoot.fr/" description:"News listing page"`
	NewsBaseURL string `long:"news-base-url" env:"NEWS_BASE_URL" default:"https://news.maxifoot.fr/" description:"Base URL used to resolve relative news links"`
	NewsFeedURL string `long:"news-feed-url" env:"NEWS_FEED_URL" description:"RSS/Atom news feed, used instead of the news listing page when set"`

	// Scheduling
	LiveInterval    int    `long:"live-interval" env:"LIVE_INTERVAL" default:"120" description:"Live check interval in seconds"`
	SummaryInterval int    `long:"summary-interval" env:"SUMMARY_INTERVAL" default:"1800" description:"Live summary interval in seconds"`
	NewsInterval    int    `long:"news-interval" env:"NEWS_INTERVAL" default:"900" description:"News publishing interval in seconds"`
	SweepAt         string `long:"sweep-at" env:"SWEEP_AT" default:"01:05" description:"Daily destination sweep time (HH:MM, local time)"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers"`

	// Fetching
	FetchTimeout      int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Listing page timeout in seconds"`
	EnrichTimeout     int     `long:"enrich-timeout" env:"ENRICH_TIMEOUT" default:"10" description:"Detail, stats and penalty page timeout in seconds"`
	CycleTimeout      int     `long:"cycle-timeout" env:"CYCLE_TIMEOUT" default:"300" description:"Deadline for a whole cycle in seconds"`
	RequestsPerSecond float64 `long:"requests-per-second" env:"REQUESTS_PER_SECOND" default:"2" description:"Maximum page requests per second per session"`

	// Announcing
	NewsContentLimit    int `long:"news-content-limit" env:"NEWS_CONTENT_LIMIT" default:"1500" description:"Maximum news content length in characters"`
	NewsPublishPause    int `long:"news-publish-pause" env:"NEWS_PUBLISH_PAUSE" default:"10" description:"Pause between two news announcements in seconds"`
	DeliveryConcurrency int `long:"delivery-concurrency" env:"DELIVERY_CONCURRENCY" default:"4" description:"Concurrent deliveries per announcement"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps and the daily sweep (e.g., UTC, Europe/Paris)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// A missing .env file is fine, the environment wins anyway
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		DestinationsDir:     raw.DestinationsDir,
		Port:                raw.Port,
		APIAccessKey:        raw.APIAccessKey,
		LiveURL:             raw.LiveURL,
		FinishedURL:         raw.FinishedURL,
		SiteBaseURL:         raw.SiteBaseURL,
		NewsURL:             raw.NewsURL,
		NewsBaseURL:         raw.NewsBaseURL,
		NewsFeedURL:         raw.NewsFeedURL,
		LiveInterval:        raw.LiveInterval,
		SummaryInterval:     raw.SummaryInterval,
		NewsInterval:        raw.NewsInterval,
		SweepAt:             raw.SweepAt,
		WorkerCount:         raw.WorkerCount,
		FetchTimeout:        raw.FetchTimeout,
		EnrichTimeout:       raw.EnrichTimeout,
		CycleTimeout:        raw.CycleTimeout,
		RequestsPerSecond:   raw.RequestsPerSecond,
		NewsContentLimit:    raw.NewsContentLimit,
		NewsPublishPause:    raw.NewsPublishPause,
		DeliveryConcurrency: raw.DeliveryConcurrency,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Used by tests and tools that build a Cfg by hand.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
