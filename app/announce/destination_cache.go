package announce

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type entry struct {
	config      *Config
	destination Destination
	raw         []byte
}

// DestinationCache holds the destinations configured in a directory of YAML files.
// It is the subscriber resolver: eligibility is evaluated at call time.
type DestinationCache struct {
	dir        string
	httpClient *http.Client
	cache      map[string]entry
	// replaced or removed by the last reload; closed on the next one since a
	// running cycle may still publish through them
	retired []entry
	mu      sync.RWMutex
}

func NewDestinationCache(dir string, httpClient *http.Client) *DestinationCache {
	return &DestinationCache{
		dir:        dir,
		httpClient: httpClient,
		cache:      make(map[string]entry),
	}
}

// Run (re)loads every *.yml file. The previous set stays in place when any file is invalid.
// Destinations whose file did not change are kept as is.
func (dc *DestinationCache) Run() error {
	dc.mu.RLock()
	previous := dc.cache
	dc.mu.RUnlock()

	loaded := make(map[string]entry)
	var built []entry

	if _, err := os.Stat(dc.dir); err == nil {
		files, err := filepath.Glob(filepath.Join(dc.dir, "*.yml"))
		if err != nil {
			return fmt.Errorf("failed to find YML files: %w", err)
		}

		for _, file := range files {
			name := strings.TrimSuffix(filepath.Base(file), ".yml")

			e, fresh, err := dc.load(name, previous[name])
			if err != nil {
				closeEntries(built)
				return fmt.Errorf("error loading %s: %w", file, err)
			}
			loaded[name] = e
			if fresh {
				built = append(built, e)
				slog.Debug("Destination loaded", "destination", name, "kind", e.config.Kind, "enabled", e.config.Enabled, "plan", e.config.Plan)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat destinations directory: %w", err)
	}

	kept := make(map[string]bool, len(loaded))
	for name, e := range loaded {
		if prev, ok := previous[name]; ok && bytes.Equal(prev.raw, e.raw) {
			kept[name] = true
		}
	}

	dc.mu.Lock()
	stale := dc.retired
	dc.retired = nil
	for name, e := range dc.cache {
		if !kept[name] {
			dc.retired = append(dc.retired, e)
		}
	}
	dc.cache = loaded
	dc.mu.Unlock()

	closeEntries(stale)

	return nil
}

func (dc *DestinationCache) GetConfig(name string) (*Config, error) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	e, ok := dc.cache[name]
	if !ok {
		return nil, fmt.Errorf("destination with name '%s' not found", name)
	}
	return e.config, nil
}

// GetConfigs returns every loaded configuration sorted by name.
func (dc *DestinationCache) GetConfigs() []*Config {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	configs := make([]*Config, 0, len(dc.cache))
	for _, e := range dc.cache {
		configs = append(configs, e.config)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

func (dc *DestinationCache) GetConfigCount() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return len(dc.cache)
}

func (dc *DestinationCache) LiveDestinations(now time.Time) []Destination {
	return dc.filter(func(c *Config) bool { return c.Entitled(now) })
}

func (dc *DestinationCache) NewsDestinations(now time.Time) []Destination {
	return dc.filter(func(c *Config) bool { return c.NewsEligible(now) })
}

// ExpiredConfigs lists enabled paid destinations past their expiry date.
func (dc *DestinationCache) ExpiredConfigs(now time.Time) []*Config {
	var expired []*Config
	for _, c := range dc.GetConfigs() {
		if c.Expired(now) {
			expired = append(expired, c)
		}
	}
	return expired
}

func (dc *DestinationCache) Close() {
	dc.mu.Lock()
	stale := dc.retired
	for _, e := range dc.cache {
		stale = append(stale, e)
	}
	dc.cache = make(map[string]entry)
	dc.retired = nil
	dc.mu.Unlock()

	closeEntries(stale)
}

func (dc *DestinationCache) filter(keep func(*Config) bool) []Destination {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	names := make([]string, 0, len(dc.cache))
	for name, e := range dc.cache {
		if keep(e.config) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	destinations := make([]Destination, 0, len(names))
	for _, name := range names {
		destinations = append(destinations, dc.cache[name].destination)
	}
	return destinations
}

// load reuses the previous entry when the file content is unchanged.
func (dc *DestinationCache) load(name string, previous entry) (entry, bool, error) {
	configFile := filepath.Join(dc.dir, name+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return entry{}, false, fmt.Errorf("failed to read file: %w", err)
	}

	if previous.destination != nil && bytes.Equal(previous.raw, data) {
		return previous, false, nil
	}

	config, err := dc.parseConfig(data)
	if err != nil {
		return entry{}, false, err
	}
	config.Name = name

	if err := dc.validateConfig(config); err != nil {
		return entry{}, false, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	destination, err := NewDestination(config, dc.httpClient)
	if err != nil {
		return entry{}, false, fmt.Errorf("failed to build destination %s: %w", name, err)
	}

	return entry{config: config, destination: destination, raw: data}, true, nil
}

func (dc *DestinationCache) parseConfig(data []byte) (*Config, error) {
	config := Config{Enabled: true}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func (dc *DestinationCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	switch config.Plan {
	case PlanAdmin, PlanBasic, PlanBusiness:
	default:
		return fmt.Errorf("invalid plan %q", config.Plan)
	}

	switch config.Kind {
	case KindFacebook:
		if config.Facebook == nil || config.Facebook.PageID == "" || config.Facebook.AccessToken == "" {
			return fmt.Errorf("facebook page_id and access_token are required")
		}
	case KindWebhook:
		if config.Webhook == nil || config.Webhook.URL == "" {
			return fmt.Errorf("webhook url is required")
		}
	case KindRedis:
		if config.Redis == nil || (config.Redis.Addr == "" && config.Redis.URL == "") {
			return fmt.Errorf("redis addr or url is required")
		}
	case KindLog:
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("invalid kind %q", config.Kind)
	}

	return nil
}

func closeEntries(entries []entry) {
	for _, e := range entries {
		if closer, ok := e.destination.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("Failed to close destination", "destination", e.config.Name, "error", err)
			}
		}
	}
}
