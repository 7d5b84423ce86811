package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard/mocks"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/newthinker/signaldesk/internal/metrics"
	"github.com/newthinker/signaldesk/internal/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testExchanges = []core.Exchange{
	{Name: "Hong Kong", Code: "HKEX"},
	{Name: "Hong Kong (SEHK)", Code: "SEHK"},
	{Name: "US", Code: "BATS"},
}

func newTestDashboard(t *testing.T, opts ...Option) (*Dashboard, *mocks.MockBackend, *session.FileStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mb := mocks.NewMockBackend(ctrl)

	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	sessions := session.NewManager(store, nil, nil, nil)

	clock := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(mb, sessions, testExchanges, "HKEX", opts...), mb, store
}

func fetched(signals ...core.Signal) *backend.SignalsResult {
	return &backend.SignalsResult{
		Signals:    signals,
		Statistics: core.Statistics{BuySignals: len(signals)},
	}
}

func TestDashboard_InitialView(t *testing.T) {
	d, _, _ := newTestDashboard(t)
	v := d.View()

	assert.Equal(t, "HKEX", v.Exchange)
	assert.Equal(t, TabSignals, v.Tab)
	assert.Equal(t, daterange.ModeDays, v.Date.Mode)
	assert.Equal(t, "1", v.Date.DaysAgo)
	assert.Equal(t, "2025-03-03", v.Date.FromDate)
	assert.Equal(t, "2025-03-10", v.Date.ToDate)
	assert.Equal(t, Descending, v.Sort.PLDirection)
	assert.False(t, v.Loading)
	assert.False(t, v.ShowResults)
	assert.False(t, v.Authenticated)
}

func TestDashboard_InitRestoresSessionAndLoadsHistory(t *testing.T) {
	d, mb, store := newTestDashboard(t)
	require.NoError(t, store.Save(session.Session{Email: "a@example.com", Token: "tok"}))

	mb.EXPECT().History(gomock.Any(), "HKEX").Return([]core.HistoryEntry{{Date: "2025-03-07"}}, nil)

	d.Init(context.Background())

	v := d.View()
	assert.True(t, v.Authenticated)
	assert.Equal(t, "a@example.com", v.Email)
	require.Len(t, v.History, 1)
	assert.False(t, v.HistoryEmpty)
}

func TestDashboard_FetchShowsResults(t *testing.T) {
	d, mb, store := newTestDashboard(t)
	require.NoError(t, store.Save(session.Session{Email: "a@example.com", Token: "tok"}))
	mb.EXPECT().History(gomock.Any(), gomock.Any()).Return(nil, nil)
	d.Init(context.Background())

	mb.EXPECT().
		FetchSignals(gomock.Any(), "tok", "HKEX", daterange.Days(3)).
		DoAndReturn(func(ctx context.Context, token, exchange string, filter daterange.Filter) (*backend.SignalsResult, error) {
			v := d.View()
			assert.True(t, v.Loading, "loading shown during request")
			assert.False(t, v.ShowResults)
			assert.False(t, v.ShowStats)
			assert.False(t, v.ShowEmpty)
			return fetched(sig("A", core.SentimentBullish, "5")), nil
		})

	res, err := d.Fetch(context.Background(), "HKEX", daterange.Days(3))
	require.NoError(t, err)
	require.Len(t, res.Signals, 1)

	v := d.View()
	assert.False(t, v.Loading)
	assert.True(t, v.ShowStats)
	assert.True(t, v.ShowResults)
	assert.False(t, v.ShowEmpty)
	assert.Equal(t, 1, v.Statistics.BuySignals)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, ClassBullish, v.Rows[0].SentimentClass)
}

func TestDashboard_FetchEmptyResult(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), "", "HKEX", gomock.Any()).Return(fetched(), nil)

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Range("2030-01-01", "2030-01-02"))
	assert.True(t, errors.Is(err, core.ErrNoSignals))

	v := d.View()
	assert.True(t, v.ShowEmpty)
	assert.Equal(t, "No signals found for the specified criteria", v.EmptyMessage)
	assert.False(t, v.ShowStats)
	assert.False(t, v.ShowResults)
	assert.False(t, v.Loading)
}

func TestDashboard_FetchTransportFailure(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, core.WrapError(core.ErrTransport, errors.New("connection refused")))

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	assert.True(t, errors.Is(err, core.ErrTransport))

	v := d.View()
	assert.True(t, v.ShowEmpty)
	assert.Equal(t, "Connection error. Please try again.", v.EmptyMessage)
	assert.False(t, v.Loading)
}

func TestDashboard_FetchBackendFailureKeepsPriorSignalsHidden(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	gomock.InOrder(
		mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "HKEX", gomock.Any()).
			Return(fetched(sig("A", core.SentimentBullish, "1")), nil),
		mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "BATS", gomock.Any()).
			Return(nil, core.WithMessage(core.ErrBackend, "Authentication required")),
	)
	mb.EXPECT().History(gomock.Any(), "BATS").Return(nil, nil)

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	require.NoError(t, err)
	_, err = d.Fetch(context.Background(), "BATS", daterange.Days(1))
	require.Error(t, err)

	v := d.View()
	assert.Equal(t, "BATS", v.Exchange)
	assert.Equal(t, "Authentication required", v.EmptyMessage)
	assert.False(t, v.ShowResults)
	assert.Empty(t, v.Rows)

	// Sorting a hidden result set shows nothing.
	d.SetSort(SortState{ByPL: true, PLDirection: Ascending})
	assert.Empty(t, d.View().Rows)

	assert.Equal(t, []string{"A"}, tickers(d.Signals()))
}

func TestDashboard_FetchCurrentRejectsBadDays(t *testing.T) {
	d, _, _ := newTestDashboard(t)

	d.SetDateInputs("abc", "2025-03-03", "2025-03-10")
	_, err := d.FetchCurrent(context.Background())
	assert.True(t, errors.Is(err, core.ErrInvalidDateFilter))

	v := d.View()
	assert.True(t, v.ShowEmpty)
	assert.False(t, v.Loading)
}

func TestDashboard_FetchCurrentUsesSelection(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().History(gomock.Any(), "BATS").Return(nil, nil)
	mb.EXPECT().
		FetchSignals(gomock.Any(), gomock.Any(), "BATS", daterange.Range("2025-01-01", "2025-01-31")).
		Return(fetched(sig("A", core.SentimentBullish, "1")), nil)

	require.Error(t, d.SetExchange(context.Background(), "BATS")) // empty history
	d.SetDateMode(daterange.ModeCustom)
	d.SetDateInputs("1", "2025-01-01", "2025-01-31")

	_, err := d.FetchCurrent(context.Background())
	require.NoError(t, err)
}

func TestDashboard_StaleFetchDiscarded(t *testing.T) {
	reg := metrics.NewRegistry()
	d, mb, _ := newTestDashboard(t, WithMetrics(reg))

	entered := make(chan struct{})
	release := make(chan struct{})

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "HKEX", gomock.Any()).
		DoAndReturn(func(ctx context.Context, token, exchange string, filter daterange.Filter) (*backend.SignalsResult, error) {
			close(entered)
			<-release
			return fetched(sig("OLD", core.SentimentBearish, "1")), nil
		})
	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "BATS", gomock.Any()).
		Return(fetched(sig("NEW", core.SentimentBullish, "2")), nil)
	mb.EXPECT().History(gomock.Any(), "BATS").Return(nil, nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	}()

	<-entered
	_, err := d.Fetch(context.Background(), "BATS", daterange.Days(1))
	require.NoError(t, err)

	close(release)
	wg.Wait()

	assert.True(t, errors.Is(firstErr, core.ErrStaleResponse))
	assert.Equal(t, []string{"NEW"}, tickers(d.Signals()))
	v := d.View()
	assert.False(t, v.Loading)
	assert.True(t, v.ShowResults)

	n, err := testutil.GatherAndCount(reg, "signaldesk_stale_responses_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDashboard_StaleFetchDoesNotClearLoading(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	second := make(chan struct{})

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "HKEX", gomock.Any()).
		DoAndReturn(func(ctx context.Context, token, exchange string, filter daterange.Filter) (*backend.SignalsResult, error) {
			close(entered)
			<-release
			return fetched(sig("OLD", core.SentimentBearish, "1")), nil
		})
	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "BATS", gomock.Any()).
		DoAndReturn(func(ctx context.Context, token, exchange string, filter daterange.Filter) (*backend.SignalsResult, error) {
			close(release)
			<-second
			return fetched(sig("NEW", core.SentimentBullish, "2")), nil
		})
	mb.EXPECT().History(gomock.Any(), "BATS").Return(nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		d.Fetch(context.Background(), "BATS", daterange.Days(1))
		close(done)
	}()

	// The first fetch resolves while the second is still in flight.
	wg.Wait()
	v := d.View()
	assert.True(t, v.Loading)
	assert.False(t, v.ShowResults)

	close(second)
	<-done
	assert.False(t, d.View().Loading)
}

func TestDashboard_SortDoesNotRefetch(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fetched(
			sig("A", core.SentimentBearish, "5"),
			sig("B", core.SentimentBullish, "-2"),
		), nil).
		Times(1)

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	require.NoError(t, err)

	rowTickers := func() []string {
		var out []string
		for _, r := range d.View().Rows {
			out = append(out, r.Ticker)
		}
		return out
	}

	assert.Equal(t, []string{"A", "B"}, rowTickers())
	d.SetSort(SortState{BySentiment: true})
	assert.Equal(t, []string{"B", "A"}, rowTickers())
	assert.Equal(t, Descending, d.View().Sort.PLDirection)
	d.SetSort(SortState{ByPL: true, PLDirection: Descending})
	assert.Equal(t, []string{"A", "B"}, rowTickers())
}

func TestDashboard_ExportIgnoresSortOrder(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	a := sig("A", core.SentimentBullish, "5")
	b := sig("B", core.SentimentBearish, "-2")

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fetched(a, b), nil)
	mb.EXPECT().Export(gomock.Any(), []core.Signal{a, b}).
		Return(&backend.ExportFile{Filename: "signals.csv", Content: []byte("A\nB\n")}, nil)

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	require.NoError(t, err)

	d.SetSort(SortState{ByPL: true, PLDirection: Descending})
	require.Equal(t, "A", d.View().Rows[0].Ticker)
	d.SetSort(SortState{ByPL: true, PLDirection: Ascending})
	require.Equal(t, "B", d.View().Rows[0].Ticker)

	file, err := d.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "signals.csv", file.Filename)
}

func TestDashboard_ExportNothingSendsNoRequest(t *testing.T) {
	reg := metrics.NewRegistry()
	d, _, _ := newTestDashboard(t, WithMetrics(reg))

	_, err := d.Export(context.Background())
	assert.True(t, errors.Is(err, core.ErrNothingToExport))
	assert.Equal(t, "No signals to export", core.UserMessage(err))
}

func TestDashboard_ExportTransportFailure(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fetched(sig("A", core.SentimentBullish, "1")), nil)
	mb.EXPECT().Export(gomock.Any(), gomock.Any()).
		Return(nil, core.WrapError(core.ErrTransport, errors.New("reset")))

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	require.NoError(t, err)

	_, err = d.Export(context.Background())
	assert.True(t, errors.Is(err, core.ErrExportFailed))
	assert.Equal(t, "Failed to export signals", core.UserMessage(err))
}

func TestDashboard_ExchangeChangeReloadsHistory(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().History(gomock.Any(), "HKEX").
		Return([]core.HistoryEntry{{Date: "2025-03-07"}, {Date: "2025-03-06"}}, nil)
	_, err := d.LoadHistory(context.Background(), "HKEX")
	require.NoError(t, err)
	require.Len(t, d.View().History, 2)

	mb.EXPECT().History(gomock.Any(), "SEHK").
		DoAndReturn(func(ctx context.Context, exchange string) ([]core.HistoryEntry, error) {
			v := d.View()
			assert.Empty(t, v.History, "previous rows cleared before the request")
			assert.Equal(t, "SEHK", v.HistoryExchange)
			return nil, core.ErrNoHistory
		}).
		Times(1)

	err = d.SetExchange(context.Background(), "SEHK")
	assert.True(t, errors.Is(err, core.ErrNoHistory))

	v := d.View()
	assert.Equal(t, "SEHK", v.Exchange)
	assert.Empty(t, v.History)
	assert.True(t, v.HistoryEmpty)

	// Reselecting the same exchange is not a change.
	require.NoError(t, d.SetExchange(context.Background(), "SEHK"))
}

func TestDashboard_HistoryKeepsServerOrder(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	entries := []core.HistoryEntry{{Date: "2025-03-05"}, {Date: "2025-03-07"}, {Date: "2025-03-06"}}
	mb.EXPECT().History(gomock.Any(), "HKEX").Return(entries, nil)

	got, err := d.LoadHistory(context.Background(), "HKEX")
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, entries, d.View().History)
}

func TestDashboard_HistoryTabReloads(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().History(gomock.Any(), "HKEX").Return([]core.HistoryEntry{{Date: "2025-03-07"}}, nil).Times(2)

	require.NoError(t, d.ActivateTab(context.Background(), TabHistory))
	require.NoError(t, d.ActivateTab(context.Background(), TabSignals))
	require.NoError(t, d.ActivateTab(context.Background(), TabHistory))
	assert.Equal(t, TabHistory, d.View().Tab)
}

func TestDashboard_SubscribersNotified(t *testing.T) {
	d, _, _ := newTestDashboard(t)

	var mu sync.Mutex
	var modes []daterange.Mode
	unsubscribe := d.Subscribe(func(v View) {
		mu.Lock()
		modes = append(modes, v.Date.Mode)
		mu.Unlock()
	})

	d.SetDateMode(daterange.ModeCustom)
	unsubscribe()
	d.SetDateMode(daterange.ModeDays)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []daterange.Mode{daterange.ModeCustom}, modes)
}

func TestDashboard_FetchOtherExchangeReloadsHistory(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "BATS", gomock.Any()).
		Return(fetched(sig("AAPL", core.SentimentBullish, "1")), nil)
	mb.EXPECT().History(gomock.Any(), "BATS").
		Return([]core.HistoryEntry{{Date: "2025-03-07"}}, nil).
		Times(1)

	_, err := d.Fetch(context.Background(), "BATS", daterange.Days(1))
	require.NoError(t, err)

	v := d.View()
	assert.Equal(t, "BATS", v.Exchange)
	assert.Equal(t, "BATS", v.HistoryExchange)
	assert.Len(t, v.History, 1)

	// Already selected by the fetch; no second history request.
	require.NoError(t, d.SetExchange(context.Background(), "BATS"))
}

func TestDashboard_FetchSameExchangeLeavesHistory(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "HKEX", gomock.Any()).
		Return(fetched(sig("A", core.SentimentBullish, "1")), nil).
		Times(2)

	for i := 0; i < 2; i++ {
		_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
		require.NoError(t, err)
	}
}

func TestDashboard_LogoutClearsSignals(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "HKEX", gomock.Any()).
		Return(fetched(sig("A", core.SentimentBullish, "1")), nil)

	_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
	require.NoError(t, err)
	require.True(t, d.View().ShowResults)

	require.NoError(t, d.Logout(context.Background()))

	assert.Empty(t, d.Signals())
	v := d.View()
	assert.False(t, v.Authenticated)
	assert.False(t, v.ShowResults)
	assert.False(t, v.ShowStats)
	assert.Empty(t, v.Rows)
	assert.Equal(t, core.Statistics{}, v.Statistics)

	// No Export expectation: the backend must not be called.
	_, err = d.Export(context.Background())
	assert.True(t, errors.Is(err, core.ErrNothingToExport))
}

func TestDashboard_LogoutDropsInFlightFetch(t *testing.T) {
	d, mb, _ := newTestDashboard(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	mb.EXPECT().FetchSignals(gomock.Any(), gomock.Any(), "HKEX", gomock.Any()).
		DoAndReturn(func(ctx context.Context, token, exchange string, filter daterange.Filter) (*backend.SignalsResult, error) {
			close(entered)
			<-release
			return fetched(sig("A", core.SentimentBullish, "1")), nil
		})

	errCh := make(chan error, 1)
	go func() {
		_, err := d.Fetch(context.Background(), "HKEX", daterange.Days(1))
		errCh <- err
	}()
	<-entered

	require.NoError(t, d.Logout(context.Background()))
	assert.False(t, d.View().Loading)
	close(release)

	assert.True(t, errors.Is(<-errCh, core.ErrStaleResponse))
	assert.Empty(t, d.Signals())
}
