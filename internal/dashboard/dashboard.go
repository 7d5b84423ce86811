// Package dashboard holds the signal dashboard state and the actions that
// change it: fetching, sorting, history loading and export.
package dashboard

//go:generate mockgen -destination=./mocks/backend.go -package=mocks github.com/newthinker/signaldesk/internal/dashboard Backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/newthinker/signaldesk/internal/metrics"
	"github.com/newthinker/signaldesk/internal/session"
	"go.uber.org/zap"
)

// Backend is the part of the signal backend the dashboard calls.
type Backend interface {
	FetchSignals(ctx context.Context, token, exchange string, filter daterange.Filter) (*backend.SignalsResult, error)
	History(ctx context.Context, exchange string) ([]core.HistoryEntry, error)
	Export(ctx context.Context, signals []core.Signal) (*backend.ExportFile, error)
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the dashboard logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) { d.logger = l }
}

// WithMetrics records stale responses and exports in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(d *Dashboard) { d.metrics = reg }
}

// WithClock overrides the clock used for the default date range.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// Dashboard is a single-writer state container. Actions mutate state under
// the lock and call the backend outside it; subscribers get a fresh View
// after every change.
type Dashboard struct {
	backend   Backend
	sessions  *session.Manager
	exchanges []core.Exchange
	logger    *zap.Logger
	metrics   *metrics.Registry
	now       func() time.Time

	mu    sync.Mutex
	state state

	subMu       sync.Mutex
	subscribers map[int]func(View)
	nextSub     int
}

// New creates a dashboard for exchanges, starting on defaultExchange.
func New(b Backend, sessions *session.Manager, exchanges []core.Exchange, defaultExchange string, opts ...Option) *Dashboard {
	d := &Dashboard{
		backend:     b,
		sessions:    sessions,
		exchanges:   exchanges,
		logger:      zap.NewNop(),
		now:         time.Now,
		subscribers: make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.state = state{
		exchange:        defaultExchange,
		historyExchange: defaultExchange,
		date:            daterange.DefaultSelection(d.now()),
		sort:            DefaultSortState(),
		tab:             TabSignals,
	}
	return d
}

// Init restores any existing session and loads history for the current
// exchange. A failed restore or history load does not stop the dashboard.
func (d *Dashboard) Init(ctx context.Context) {
	d.sessions.Restore(ctx)
	d.notify()
	if _, err := d.LoadHistory(ctx, d.View().Exchange); err != nil {
		d.logger.Debug("initial history load failed", zap.Error(err))
	}
}

// View returns the current snapshot.
func (d *Dashboard) View() View {
	d.mu.Lock()
	v := d.state.view(d.exchanges)
	d.mu.Unlock()

	s := d.sessions.Current()
	v.Authenticated = s.Authenticated
	v.Email = s.Email
	return v
}

// Signals returns the most recently fetched signals in arrival order.
func (d *Dashboard) Signals() []core.Signal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Signal(nil), d.state.signals...)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (d *Dashboard) Subscribe(fn func(View)) func() {
	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subscribers[id] = fn
	d.subMu.Unlock()

	return func() {
		d.subMu.Lock()
		delete(d.subscribers, id)
		d.subMu.Unlock()
	}
}

// update applies fn under the lock, then notifies subscribers.
func (d *Dashboard) update(fn func(s *state)) {
	d.mu.Lock()
	fn(&d.state)
	d.mu.Unlock()
	d.notify()
}

func (d *Dashboard) notify() {
	d.subMu.Lock()
	subs := make([]func(View), 0, len(d.subscribers))
	for _, fn := range d.subscribers {
		subs = append(subs, fn)
	}
	d.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	v := d.View()
	for _, fn := range subs {
		fn(v)
	}
}

// Fetch requests signals for exchange within filter and makes exchange the
// selected one; a changed selection reloads history as SetExchange does.
// The results area is hidden and the loading indicator shown before the
// request is sent.
// An empty result returns ErrNoSignals. A response overtaken by a newer
// fetch is dropped and returns ErrStaleResponse.
func (d *Dashboard) Fetch(ctx context.Context, exchange string, filter daterange.Filter) (*backend.SignalsResult, error) {
	var id uint64
	changed := false
	d.update(func(s *state) {
		s.fetchSeq++
		id = s.fetchSeq
		if s.exchange != exchange {
			s.exchange = exchange
			changed = true
		}
		s.hideResults()
		s.loading = true
	})

	d.logger.Debug("fetching signals",
		zap.Uint64("request", id),
		zap.String("exchange", exchange),
		zap.Stringer("filter", filter),
	)

	res, err := d.backend.FetchSignals(ctx, d.sessions.Token(), exchange, filter)

	stale := false
	d.update(func(s *state) {
		if id != s.fetchSeq {
			stale = true
			return
		}
		s.loading = false
		switch {
		case err != nil:
			s.showEmptyState(core.UserMessage(err))
		case len(res.Signals) == 0:
			s.showEmptyState(core.ErrNoSignals.Message)
		default:
			s.signals = res.Signals
			s.stats = res.Statistics
			s.showStats = true
			s.showResults = true
		}
	})

	if changed {
		if _, herr := d.LoadHistory(ctx, exchange); herr != nil {
			d.logger.Debug("history after exchange change", zap.String("exchange", exchange), zap.Error(herr))
		}
	}

	if stale {
		d.discarded("fetch", id)
		return nil, core.ErrStaleResponse
	}
	if err != nil {
		d.logger.Warn("fetch failed", zap.String("exchange", exchange), zap.Error(err))
		return nil, err
	}
	if len(res.Signals) == 0 {
		return nil, core.ErrNoSignals
	}
	return res, nil
}

// FetchCurrent fetches with the selected exchange and date inputs.
// An unresolvable date selection is shown in the empty state and sends
// nothing.
func (d *Dashboard) FetchCurrent(ctx context.Context) (*backend.SignalsResult, error) {
	d.mu.Lock()
	exchange := d.state.exchange
	sel := d.state.date
	d.mu.Unlock()

	filter, err := sel.Resolve()
	if err != nil {
		d.update(func(s *state) {
			s.hideResults()
			s.showEmptyState(core.UserMessage(err))
		})
		return nil, err
	}
	return d.Fetch(ctx, exchange, filter)
}

// SetSort replaces the sort toggles. Rows are reordered from the held
// signals without fetching.
func (d *Dashboard) SetSort(st SortState) {
	if st.PLDirection == "" {
		st.PLDirection = Descending
	}
	d.update(func(s *state) { s.sort = st })
}

// SetDateMode switches which date inputs are active.
func (d *Dashboard) SetDateMode(mode daterange.Mode) {
	d.update(func(s *state) { s.date.Mode = mode })
}

// SetDateInputs stores the raw date inputs without resolving them.
func (d *Dashboard) SetDateInputs(days, from, to string) {
	d.update(func(s *state) {
		s.date.DaysAgo = days
		s.date.FromDate = from
		s.date.ToDate = to
	})
}

// SetExchange selects exchange and reloads its history. Selecting the
// current exchange again does nothing.
func (d *Dashboard) SetExchange(ctx context.Context, exchange string) error {
	changed := false
	d.update(func(s *state) {
		if s.exchange != exchange {
			s.exchange = exchange
			changed = true
		}
	})
	if !changed {
		return nil
	}
	_, err := d.LoadHistory(ctx, exchange)
	return err
}

// ActivateTab shows tab. The history tab reloads history each time.
func (d *Dashboard) ActivateTab(ctx context.Context, tab Tab) error {
	var exchange string
	d.update(func(s *state) {
		s.tab = tab
		exchange = s.exchange
	})
	if tab != TabHistory {
		return nil
	}
	_, err := d.LoadHistory(ctx, exchange)
	return err
}

// LoadHistory replaces the history rows for exchange. Rows are cleared
// before the request; an empty or failed load shows the empty marker.
func (d *Dashboard) LoadHistory(ctx context.Context, exchange string) ([]core.HistoryEntry, error) {
	var id uint64
	d.update(func(s *state) {
		s.historySeq++
		id = s.historySeq
		s.historyExchange = exchange
		s.history = nil
		s.historyEmpty = false
	})

	history, err := d.backend.History(ctx, exchange)

	stale := false
	d.update(func(s *state) {
		if id != s.historySeq {
			stale = true
			return
		}
		if err != nil || len(history) == 0 {
			s.historyEmpty = true
			return
		}
		s.history = history
	})

	switch {
	case stale:
		d.discarded("history", id)
		return nil, core.ErrStaleResponse
	case err != nil:
		d.logger.Warn("history load failed", zap.String("exchange", exchange), zap.Error(err))
		return nil, err
	case len(history) == 0:
		return nil, core.ErrNoHistory
	}
	return history, nil
}

// Export sends the fetched signals, in arrival order, to the backend for
// formatting. Sorting never changes what is exported.
func (d *Dashboard) Export(ctx context.Context) (*backend.ExportFile, error) {
	signals := d.Signals()
	if len(signals) == 0 {
		d.recordExport("empty")
		return nil, core.ErrNothingToExport
	}

	file, err := d.backend.Export(ctx, signals)
	if err != nil {
		d.recordExport("failed")
		d.logger.Warn("export failed", zap.Int("signals", len(signals)), zap.Error(err))
		if !errors.Is(err, core.ErrExportFailed) {
			err = core.WrapError(core.ErrExportFailed, err)
		}
		return nil, err
	}

	d.recordExport("ok")
	d.logger.Info("signals exported",
		zap.String("filename", file.Filename),
		zap.Int("signals", len(signals)),
	)
	return file, nil
}

// Login authenticates email through the session manager.
func (d *Dashboard) Login(ctx context.Context, email string) error {
	_, err := d.sessions.Login(ctx, email)
	d.notify()
	return err
}

// Logout clears the session along with the fetched signals and
// statistics. A fetch still in flight is dropped when it returns.
func (d *Dashboard) Logout(ctx context.Context) error {
	err := d.sessions.Logout(ctx)
	d.update(func(s *state) {
		s.fetchSeq++
		s.loading = false
		s.signals = nil
		s.stats = core.Statistics{}
		s.hideResults()
	})
	return err
}

func (d *Dashboard) discarded(kind string, id uint64) {
	d.logger.Info("discarding stale response",
		zap.String("kind", kind),
		zap.Uint64("request", id),
	)
	if d.metrics != nil {
		d.metrics.RecordStaleResponse(kind)
	}
}

func (d *Dashboard) recordExport(status string) {
	if d.metrics != nil {
		d.metrics.RecordExport(status)
	}
}
