package announce

import (
	"time"
)

const (
	KindFacebook = "facebook"
	KindWebhook  = "webhook"
	KindRedis    = "redis"
	KindLog      = "log"
)

const (
	PlanAdmin    = "admin"
	PlanBasic    = "basic"
	PlanBusiness = "business"
)

// Config describes one subscriber destination, loaded from {name}.yml.
type Config struct {
	Name        string     // Derived from filename (without .yml extension)
	Kind        string     `yaml:"kind"`
	Enabled     bool       `yaml:"enabled"`
	Plan        string     `yaml:"plan"`
	ExpiresAt   *time.Time `yaml:"expires_at"`
	TrialEndsAt *time.Time `yaml:"trial_ends_at"`

	Facebook *FacebookConfig `yaml:"facebook"`
	Webhook  *WebhookConfig  `yaml:"webhook"`
	Redis    *RedisConfig    `yaml:"redis"`
}

type FacebookConfig struct {
	PageID      string `yaml:"page_id"`
	AccessToken string `yaml:"access_token"`
	GraphURL    string `yaml:"graph_url"` // defaults to https://graph.facebook.com/v19.0
}

type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

func (c *Config) subscriptionActive(now time.Time) bool {
	switch c.Plan {
	case PlanBasic, PlanBusiness:
		return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
	default:
		return false
	}
}

func (c *Config) inTrial(now time.Time) bool {
	return c.TrialEndsAt != nil && now.Before(*c.TrialEndsAt)
}

// Entitled reports whether the destination receives live match announcements.
func (c *Config) Entitled(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	return c.Plan == PlanAdmin || c.subscriptionActive(now) || c.inTrial(now)
}

// NewsEligible reports whether the destination also receives news.
func (c *Config) NewsEligible(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	return c.Plan == PlanAdmin || (c.Plan == PlanBusiness && c.subscriptionActive(now))
}

// Expired reports a paid plan whose expiry date has passed.
func (c *Config) Expired(now time.Time) bool {
	return c.Enabled && c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) &&
		(c.Plan == PlanBasic || c.Plan == PlanBusiness)
}
