package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/tasks"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func NewHandler(stateRepo database.MatchStateRepository, publishedRepo database.PublishedMatchRepository,
	newsRepo database.NewsRepository, broadcastRepo database.BroadcastRepository,
	destinations DestinationLister, scheduler TaskTrigger, version string) *Handler {
	return &Handler{
		stateRepo:     stateRepo,
		publishedRepo: publishedRepo,
		newsRepo:      newsRepo,
		broadcastRepo: broadcastRepo,
		destinations:  destinations,
		scheduler:     scheduler,
		version:       version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.stateRepo.GetMatchStateCount(c.Request.Context()); err == nil {
		health["tracked_matches"] = count
	}

	health["loaded_destinations"] = h.destinations.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats := map[string]interface{}{
		"destinations": h.destinations.GetConfigCount(),
		"in_flight":    h.scheduler.InFlight(),
	}

	counters := []struct {
		name  string
		count func(context.Context) (int, error)
	}{
		{"tracked_matches", h.stateRepo.GetMatchStateCount},
		{"published_matches", h.publishedRepo.GetPublishedMatchCount},
		{"published_news", h.newsRepo.GetPublishedNewsCount},
		{"broadcasts", h.broadcastRepo.GetBroadcastCount},
	}
	for _, counter := range counters {
		n, err := counter.count(ctx)
		if err != nil {
			slog.Error("Database error", "operation", counter.name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		stats[counter.name] = n
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListMatches(c *gin.Context) {
	states, err := h.stateRepo.ListMatchStates(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_match_states", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	matches := make([]gin.H, 0, len(states))
	for _, st := range states {
		matches = append(matches, gin.H{
			"match_key":  st.MatchKey,
			"eq1":        st.Eq1,
			"eq2":        st.Eq2,
			"score":      st.Score,
			"status":     st.Status,
			"minute":     st.Minute,
			"url":        st.URL,
			"updated_at": st.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches, "total": len(matches)})
}

func (h *Handler) APIListBroadcasts(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	broadcasts, err := h.broadcastRepo.ListBroadcasts(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_broadcasts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(broadcasts))
	for _, b := range broadcasts {
		items = append(items, gin.H{
			"id":         b.ID,
			"kind":       b.Kind,
			"content":    b.Content,
			"recipients": b.Recipients,
			"created_at": b.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"broadcasts": items, "total": len(items)})
}

func (h *Handler) APIListPublishedMatches(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	published, err := h.publishedRepo.ListPublishedMatches(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_published_matches", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(published))
	for _, p := range published {
		items = append(items, gin.H{
			"match_identifier": p.MatchIdentifier,
			"published_at":     p.PublishedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"matches": items, "total": len(items)})
}

func (h *Handler) APIListPublishedNews(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	published, err := h.newsRepo.ListPublishedNews(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_published_news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(published))
	for _, n := range published {
		items = append(items, gin.H{
			"article_url":  n.ArticleURL,
			"title":        n.Title,
			"source":       n.Source,
			"published_at": n.PublishedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"news": items, "total": len(items)})
}

// APIListDestinations reports each destination with its entitlement at request time.
// Credentials are never included.
func (h *Handler) APIListDestinations(c *gin.Context) {
	now := time.Now()
	configs := h.destinations.GetConfigs()

	items := make([]gin.H, 0, len(configs))
	for _, dc := range configs {
		items = append(items, gin.H{
			"name":          dc.Name,
			"kind":          dc.Kind,
			"enabled":       dc.Enabled,
			"plan":          dc.Plan,
			"expires_at":    dc.ExpiresAt,
			"trial_ends_at": dc.TrialEndsAt,
			"live":          dc.Entitled(now),
			"news":          dc.NewsEligible(now),
			"expired":       dc.Expired(now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"destinations": items, "total": len(items)})
}

func (h *Handler) APITriggerTask(c *gin.Context) {
	taskType, err := tasks.ParseTaskType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task type", "details": err.Error()})
		return
	}

	task, err := h.scheduler.Trigger(taskType)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "Task already in flight", "type": taskType})
			return
		}
		slog.Error("Error enqueueing task", "type", string(taskType), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, true
}
