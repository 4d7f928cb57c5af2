package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/minute-foot/app/match"
)

const livePage = `<html><body><table>
<tr data-matchid="101">
  <td class="lm2">67'</td>
  <td class="lm3"><a href="/live-score/psg-om.html?from=home">
    <span class="lm3_eq1">PSG</span>
    <span class="scored_1">2</span>
    <span class="scored_2">1</span>
    <span class="lm3_eq2">OM</span></a>
  </td>
</tr>
<tr data-matchid="102">
  <td class="lm2">Mi-temps</td>
  <td class="lm3"><a href="/live-score/lyon-nice.html">
    <span class="lm3_eq1">Lyon</span>
    <span class="scored_1">0</span>
    <span class="scored_2">0</span>
    <span class="lm3_eq2">Nice</span></a>
  </td>
</tr>
<tr>
  <td class="lm2">20:45</td>
  <td class="lm3"><span class="lm3_eq1">Brest</span></td>
</tr>
</table></body></html>`

const finishedPage = `<html><body><table>
<tr data-matchid="201">
  <td class="lm2">Ter</td>
  <td class="lm3"><span class="lm3_eq1">Lens</span><span class="lm3_score">1 - 1</span><span class="lm3_eq2">Lille</span></td>
  <td><a class="ga4-matchdetail" href="/live-score/lens-lille.html">détail</a></td>
</tr>
<tr data-matchid="202">
  <td class="lm2">88'</td>
  <td class="lm3"><span class="lm3_eq1">Rennes</span><span class="lm3_score">0 - 3</span><span class="lm3_eq2">Nantes</span></td>
</tr>
</table></body></html>`

const detailPage = `<html><body><table>
<tr><td class="c2">12'</td><td><span class="st1 eventTypeG">Dembélé</span></td></tr>
<tr><td class="c2">40'</td><td><span class="st1 eventTypeC">Carton</span></td></tr>
<tr><td class="c2">55'</td><td><span class="st1 eventTypeG">Mbappé (p)</span></td></tr>
<tr><td class="c2">70'</td><td>Remplacement</td></tr>
<tr><td>Penalties : <b>5 - 4</b></td></tr>
</table></body></html>`

const statsPage = `<html><body>
<div class="progressBar"><h5 class="progressHeaderTitle">Possession</h5><span class="progressBarValue1">58%</span><span class="progressBarValue2">42%</span></div>
<div class="progressBar"><h5 class="progressHeaderTitle">Tirs</h5><span class="progressBarValue1">9</span><span class="progressBarValue2">4</span></div>
<div class="progressBar"><h5 class="progressHeaderTitle">Possession</h5><span class="progressBarValue1">1</span><span class="progressBarValue2">2</span></div>
<div class="progressBar"><h5 class="progressHeaderTitle">Sans valeurs</h5></div>
</body></html>`

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/live-score/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch {
		case r.URL.Path == "/live-score/":
			fmt.Fprint(w, livePage)
		case r.URL.Query().Get("p") == "stats":
			fmt.Fprint(w, statsPage)
		default:
			fmt.Fprint(w, detailPage)
		}
	})
	mux.HandleFunc("/live-foot/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, finishedPage)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSource(srv *httptest.Server) *Source {
	return NewSource(SourceOptions{
		LiveURL:       srv.URL + "/live-score/",
		FinishedURL:   srv.URL + "/live-foot/",
		BaseURL:       srv.URL,
		FetchTimeout:  5 * time.Second,
		EnrichTimeout: 5 * time.Second,
	})
}

func newTestSession(t *testing.T) *HTTPSession {
	t.Helper()
	s, err := NewHTTPSession(SessionOptions{UserAgent: "minute-foot-test"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFetchLiveListing(t *testing.T) {
	srv := newSiteServer(t)
	source := newTestSource(srv)

	records, err := source.FetchLiveListing(context.Background(), newTestSession(t))
	require.NoError(t, err)
	require.Len(t, records, 2, "rows without both team names are skipped")

	assert.Equal(t, "PSG vs OM", records[0].Key)
	assert.Equal(t, "2 - 1", records[0].Score)
	assert.Equal(t, "67'", records[0].Minute)
	assert.Equal(t, match.StatusNone, records[0].Status)
	assert.Equal(t, srv.URL+"/live-score/psg-om.html?from=home", records[0].URL)
	assert.Equal(t, "101", records[0].SourceID)

	assert.Equal(t, match.StatusHalfTime, records[1].Status)
}

func TestFetchFinishedListing(t *testing.T) {
	srv := newSiteServer(t)
	source := newTestSource(srv)

	records, err := source.FetchFinishedListing(context.Background(), newTestSession(t))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, match.FinishedRecord{
		SourceID: "201",
		Eq1:      "Lens",
		Eq2:      "Lille",
		Score:    "1 - 1",
		Status:   match.StatusFinished,
		URL:      srv.URL + "/live-score/lens-lille.html",
	}, records[0])
}

func TestEnrichment(t *testing.T) {
	srv := newSiteServer(t)
	source := newTestSource(srv)
	session := newTestSession(t)
	ctx := context.Background()
	matchURL := srv.URL + "/live-score/psg-om.html?from=home"

	detail, found, err := source.FetchMatchDetail(ctx, session, matchURL)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, match.Detail{Scorer: "Mbappé (p)", Minute: "55'"}, detail)

	stats, found, err := source.FetchMatchStats(ctx, session, matchURL)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "📊 Possession : 58% - 42%\n📊 Tirs : 9 - 4", stats)

	penalties, found, err := source.FetchPenaltyResult(ctx, session, matchURL)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "5 - 4", penalties)

	_, found, err = source.FetchMatchDetail(ctx, session, "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatsURL(t *testing.T) {
	assert.Equal(t, "https://example.com/m.html?p=stats", StatsURL("https://example.com/m.html?from=live"))
	assert.Equal(t, "https://example.com/m.html?p=stats", StatsURL("https://example.com/m.html"))
	assert.Empty(t, StatsURL(""))
}

func TestStatusErrorIsTransient(t *testing.T) {
	srv := newSiteServer(t)
	session := newTestSession(t)

	_, err := session.Get(context.Background(), srv.URL+"/missing", time.Second)
	require.Error(t, err)

	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.False(t, errors.Is(err, ErrSessionBroken))
}

func TestRepeatedTransportFailuresBreakSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	session := newTestSession(t)
	var err error
	for i := 0; i < maxConsecutiveFailures; i++ {
		_, err = session.Get(context.Background(), addr, time.Second)
		require.Error(t, err)
		if i < maxConsecutiveFailures-1 {
			assert.False(t, errors.Is(err, ErrSessionBroken))
		}
	}
	assert.True(t, errors.Is(err, ErrSessionBroken))
}

func TestClosedSessionIsBroken(t *testing.T) {
	session := newTestSession(t)
	require.NoError(t, session.Close())

	_, err := session.Get(context.Background(), "http://127.0.0.1:1/", time.Second)
	assert.True(t, errors.Is(err, ErrSessionBroken))
}

func TestDocumentDecodesLatin1(t *testing.T) {
	page := &Page{
		URL:         "http://example.com",
		ContentType: "text/html; charset=iso-8859-1",
		Body:        []byte("<html><body><p>Bient\xf4t</p></body></html>"),
	}

	doc, err := Document(page)
	require.NoError(t, err)
	assert.Equal(t, "Bientôt", doc.Find("p").Text())
}

type fakeSession struct {
	closed atomic.Bool
}

func (f *fakeSession) Get(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	return &Page{URL: url}, nil
}

func (f *fakeSession) Close() error {
	f.closed.Store(true)
	return nil
}

func TestSessionManagerLifecycle(t *testing.T) {
	var sessions []*fakeSession
	manager := NewSessionManager(func() (Session, error) {
		s := &fakeSession{}
		sessions = append(sessions, s)
		return s, nil
	})

	first, err := manager.Acquire()
	require.NoError(t, err)
	again, err := manager.Acquire()
	require.NoError(t, err)
	assert.Same(t, first, again, "session is reused across cycles")
	assert.Equal(t, 1, manager.Generations())

	manager.Discard()
	assert.True(t, sessions[0].closed.Load())

	fresh, err := manager.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, 2, manager.Generations())

	require.NoError(t, manager.Close())
	assert.True(t, sessions[1].closed.Load())

	manager.Discard()
	require.NoError(t, manager.Close())
}

func TestSessionManagerFactoryError(t *testing.T) {
	manager := NewSessionManager(func() (Session, error) {
		return nil, errors.New("no browser")
	})

	_, err := manager.Acquire()
	require.Error(t, err)
	assert.Equal(t, 0, manager.Generations())
}
