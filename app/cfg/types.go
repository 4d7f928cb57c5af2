package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath          string
	DestinationsDir string

	// HTTP dashboard
	Port         string
	APIAccessKey string

	// Sources
	LiveURL     string
	FinishedURL string
	SiteBaseURL string
	NewsURL     string
	NewsBaseURL string
	NewsFeedURL string

	// Scheduling
	LiveInterval    int
	SummaryInterval int
	NewsInterval    int
	SweepAt         string
	WorkerCount     int

	// Fetching
	FetchTimeout      int
	EnrichTimeout     int
	CycleTimeout      int
	RequestsPerSecond float64

	// Announcing
	NewsContentLimit    int
	NewsPublishPause    int
	DeliveryConcurrency int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) GetFetchTimeout() time.Duration {
	return seconds(c.FetchTimeout, 15)
}

func (c *Cfg) GetEnrichTimeout() time.Duration {
	return seconds(c.EnrichTimeout, 10)
}

func (c *Cfg) GetCycleTimeout() time.Duration {
	return seconds(c.CycleTimeout, 300)
}

func (c *Cfg) GetNewsPublishPause() time.Duration {
	if c.NewsPublishPause <= 0 {
		return 0
	}
	return time.Duration(c.NewsPublishPause) * time.Second
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
