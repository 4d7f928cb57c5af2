package announce

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultGraphURL = "https://graph.facebook.com/v19.0"

// Destination is an opaque publish capability.
type Destination interface {
	Name() string
	Kind() string
	Publish(ctx context.Context, message string) error
}

// NewDestination builds the destination described by c.
func NewDestination(c *Config, httpClient *http.Client) (Destination, error) {
	switch c.Kind {
	case KindFacebook:
		return &FacebookDestination{
			name:     c.Name,
			pageID:   c.Facebook.PageID,
			token:    c.Facebook.AccessToken,
			graphURL: strings.TrimRight(cmp.Or(c.Facebook.GraphURL, defaultGraphURL), "/"),
			client:   httpClient,
		}, nil
	case KindWebhook:
		return &WebhookDestination{
			name:    c.Name,
			url:     c.Webhook.URL,
			headers: c.Webhook.Headers,
			client:  httpClient,
		}, nil
	case KindRedis:
		return NewRedisDestination(c.Name, c.Redis)
	case KindLog:
		return &LogDestination{name: c.Name}, nil
	default:
		return nil, fmt.Errorf("unknown destination kind %q", c.Kind)
	}
}

// FacebookDestination posts to a page feed through the Graph API.
type FacebookDestination struct {
	name     string
	pageID   string
	token    string
	graphURL string
	client   *http.Client
}

func (d *FacebookDestination) Name() string { return d.name }
func (d *FacebookDestination) Kind() string { return KindFacebook }

func (d *FacebookDestination) Publish(ctx context.Context, message string) error {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", d.token)

	endpoint := fmt.Sprintf("%s/%s/feed", d.graphURL, url.PathEscape(d.pageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doRequest(d.client, req)
}

// WebhookDestination POSTs a JSON document to an arbitrary endpoint.
type WebhookDestination struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
}

type webhookPayload struct {
	Destination string    `json:"destination"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sent_at"`
}

func (d *WebhookDestination) Name() string { return d.name }
func (d *WebhookDestination) Kind() string { return KindWebhook }

func (d *WebhookDestination) Publish(ctx context.Context, message string) error {
	body, err := json.Marshal(webhookPayload{Destination: d.name, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	return doRequest(d.client, req)
}

func doRequest(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet)))
	}
	return nil
}

// RedisDestination appends messages to a Redis stream.
type RedisDestination struct {
	name   string
	stream string
	client *redis.Client
}

func NewRedisDestination(name string, c *RedisConfig) (*RedisDestination, error) {
	var opts *redis.Options
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: c.Addr}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisDestination{
		name:   name,
		stream: cmp.Or(c.Stream, "minutefoot:announcements"),
		client: redis.NewClient(opts),
	}, nil
}

func (d *RedisDestination) Name() string { return d.name }
func (d *RedisDestination) Kind() string { return KindRedis }

func (d *RedisDestination) Publish(ctx context.Context, message string) error {
	err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]interface{}{
			"destination": d.name,
			"message":     message,
			"sent_at":     time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", d.stream, err)
	}
	return nil
}

func (d *RedisDestination) Close() error {
	return d.client.Close()
}

// LogDestination only logs, for dry runs.
type LogDestination struct {
	name string
}

func (d *LogDestination) Name() string { return d.name }
func (d *LogDestination) Kind() string { return KindLog }

func (d *LogDestination) Publish(ctx context.Context, message string) error {
	slog.Info("Announcement", "destination", d.name, "message", message)
	return nil
}
