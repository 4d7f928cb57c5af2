package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

// Deps are the collaborators of an Engine. Clock defaults to time.Now.
type Deps struct {
	Live      LiveSource
	News      NewsSource
	States    database.MatchStateRepository
	Published database.PublishedMatchRepository
	NewsStore database.NewsRepository
	Global    database.GlobalStateRepository
	Resolver  Resolver
	Announcer Announcer
	Clock     func() time.Time

	// NewsPause is waited between two news announcements.
	NewsPause time.Duration
}

// Engine reconciles freshly scraped state with the stored state and announces
// the differences. Cycles are not safe to run concurrently with themselves;
// the scheduler guarantees one in flight per task type.
type Engine struct {
	live      LiveSource
	news      NewsSource
	states    database.MatchStateRepository
	published database.PublishedMatchRepository
	newsStore database.NewsRepository
	global    database.GlobalStateRepository
	resolver  Resolver
	announcer Announcer
	clock     func() time.Time
	newsPause time.Duration
}

func New(deps Deps) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		live:      deps.Live,
		news:      deps.News,
		states:    deps.States,
		published: deps.Published,
		newsStore: deps.NewsStore,
		global:    deps.Global,
		resolver:  deps.Resolver,
		announcer: deps.Announcer,
		clock:     clock,
		newsPause: deps.NewsPause,
	}
}

const persistTimeout = 10 * time.Second

// persistContext detaches writes that follow an announcement from the cycle
// deadline. Announced events must be recorded or the next cycle repeats them.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (e *Engine) announce(ctx context.Context, kind, message string, destinations []announce.Destination) {
	if err := e.announcer.Announce(ctx, kind, message, destinations); err != nil {
		slog.Error("Announcement history not recorded", "kind", kind, "error", err)
	}
}

// sessionFailure keeps the first error that requires the session to be discarded.
type sessionFailure struct {
	err error
}

func (f *sessionFailure) observe(err error) {
	if f.err == nil && errors.Is(err, scrape.ErrSessionBroken) {
		f.err = err
	}
}
