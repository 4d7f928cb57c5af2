package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/match"
	"github.com/lysyi3m/minute-foot/app/news"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

type fakeLive struct {
	listing    []match.Record
	listingErr error
	finished   []match.FinishedRecord

	details   map[string]match.Detail
	detailErr error
	stats     map[string]string
	statsErr  error
	penalties map[string]string

	detailCalls int
}

func (f *fakeLive) FetchLiveListing(ctx context.Context, s scrape.Session) ([]match.Record, error) {
	return f.listing, f.listingErr
}

func (f *fakeLive) FetchFinishedListing(ctx context.Context, s scrape.Session) ([]match.FinishedRecord, error) {
	return f.finished, nil
}

func (f *fakeLive) FetchMatchDetail(ctx context.Context, s scrape.Session, url string) (match.Detail, bool, error) {
	f.detailCalls++
	if f.detailErr != nil {
		return match.Detail{}, false, f.detailErr
	}
	d, ok := f.details[url]
	return d, ok, nil
}

func (f *fakeLive) FetchMatchStats(ctx context.Context, s scrape.Session, url string) (string, bool, error) {
	if f.statsErr != nil {
		return "", false, f.statsErr
	}
	v, ok := f.stats[url]
	return v, ok, nil
}

func (f *fakeLive) FetchPenaltyResult(ctx context.Context, s scrape.Session, url string) (string, bool, error) {
	v, ok := f.penalties[url]
	return v, ok, nil
}

type fakeNews struct {
	items    []news.Item
	articles map[string]string
	errs     map[string]error
}

func (f *fakeNews) FetchNewsList(ctx context.Context, s scrape.Session) ([]news.Item, error) {
	return f.items, nil
}

func (f *fakeNews) FetchArticle(ctx context.Context, s scrape.Session, url string) (string, bool, error) {
	if err := f.errs[url]; err != nil {
		return "", false, err
	}
	content, ok := f.articles[url]
	return content, ok, nil
}

// memoryStore implements every repository the engine needs.
type memoryStore struct {
	mu        sync.Mutex
	states    map[string]database.MatchState
	published map[string]time.Time
	news      map[string]database.PublishedNews
	global    map[string]string
	commitErr error
	commits   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		states:    make(map[string]database.MatchState),
		published: make(map[string]time.Time),
		news:      make(map[string]database.PublishedNews),
		global:    make(map[string]string),
	}
}

func (m *memoryStore) ListMatchStates(ctx context.Context) ([]database.MatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]database.MatchState, 0, len(m.states))
	for _, st := range m.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchKey < out[j].MatchKey })
	return out, nil
}

func (m *memoryStore) CommitMatchStates(ctx context.Context, upserts []database.MatchState, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits++
	for _, st := range upserts {
		m.states[st.MatchKey] = st
	}
	for _, key := range deletes {
		delete(m.states, key)
	}
	return nil
}

func (m *memoryStore) GetMatchStateCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states), nil
}

func (m *memoryStore) IsMatchPublished(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.published[id]
	return ok, nil
}

func (m *memoryStore) ClaimMatch(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.published[id]; ok {
		return false, nil
	}
	m.published[id] = time.Now()
	return true, nil
}

func (m *memoryStore) ListPublishedMatches(ctx context.Context, limit int) ([]database.PublishedMatch, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryStore) GetPublishedMatchCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published), nil
}

func (m *memoryStore) IsNewsPublished(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.news[url]
	return ok, nil
}

func (m *memoryStore) MarkNewsPublished(ctx context.Context, item database.PublishedNews) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.news[item.ArticleURL]; !ok {
		m.news[item.ArticleURL] = item
	}
	return nil
}

func (m *memoryStore) ListPublishedNews(ctx context.Context, limit int) ([]database.PublishedNews, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryStore) GetPublishedNewsCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.news), nil
}

func (m *memoryStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.global[key]
	return v, ok, nil
}

func (m *memoryStore) SetValue(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global[key] = value
	return nil
}

type namedDestination string

func (d namedDestination) Name() string                                  { return string(d) }
func (d namedDestination) Kind() string                                  { return announce.KindLog }
func (d namedDestination) Publish(ctx context.Context, msg string) error { return nil }

type fakeResolver struct {
	live []announce.Destination
	news []announce.Destination
}

func (r *fakeResolver) LiveDestinations(now time.Time) []announce.Destination { return r.live }
func (r *fakeResolver) NewsDestinations(now time.Time) []announce.Destination { return r.news }

type sent struct {
	kind    string
	message string
	targets int
}

type fakeAnnouncer struct {
	sent []sent
}

func (a *fakeAnnouncer) Announce(ctx context.Context, kind, message string, destinations []announce.Destination) error {
	a.sent = append(a.sent, sent{kind: kind, message: message, targets: len(destinations)})
	return nil
}

func (a *fakeAnnouncer) kinds() []string {
	out := make([]string, 0, len(a.sent))
	for _, s := range a.sent {
		out = append(out, s.kind)
	}
	return out
}

type harness struct {
	live      *fakeLive
	news      *fakeNews
	store     *memoryStore
	resolver  *fakeResolver
	announcer *fakeAnnouncer
	engine    *Engine
}

func newHarness() *harness {
	h := &harness{
		live:      &fakeLive{},
		news:      &fakeNews{},
		store:     newMemoryStore(),
		resolver:  &fakeResolver{live: []announce.Destination{namedDestination("page")}, news: []announce.Destination{namedDestination("page")}},
		announcer: &fakeAnnouncer{},
	}
	h.engine = New(Deps{
		Live:      h.live,
		News:      h.news,
		States:    h.store,
		Published: h.store,
		NewsStore: h.store,
		Global:    h.store,
		Resolver:  h.resolver,
		Announcer: h.announcer,
		Clock:     func() time.Time { return time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC) },
	})
	return h
}

func record(eq1, eq2, score, minute string) match.Record {
	return match.NewRecord(eq1, eq2, score, minute, "https://example.test/match/"+eq1, "")
}

func (h *harness) seed(records ...match.Record) {
	for _, r := range records {
		h.store.states[r.Key] = stateFromRecord(r, time.Time{})
	}
}
