package dashboard

import (
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/daterange"
)

// Tab is the visible page section.
type Tab string

const (
	TabSignals Tab = "signals"
	TabHistory Tab = "history"
)

// View is a render-ready snapshot of the dashboard.
type View struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email"`

	Exchanges []core.Exchange     `json:"exchanges"`
	Exchange  string              `json:"exchange"`
	Date      daterange.Selection `json:"date"`
	Sort      SortState           `json:"sort"`
	Tab       Tab                 `json:"tab"`

	Loading      bool            `json:"loading"`
	ShowStats    bool            `json:"show_stats"`
	ShowResults  bool            `json:"show_results"`
	ShowEmpty    bool            `json:"show_empty"`
	EmptyMessage string          `json:"empty_message,omitempty"`
	Statistics   core.Statistics `json:"statistics"`
	Rows         []Row           `json:"rows"`

	HistoryExchange string              `json:"history_exchange"`
	History         []core.HistoryEntry `json:"history"`
	HistoryEmpty    bool                `json:"history_empty"`
}

// state is owned by Dashboard and only touched under its lock.
type state struct {
	exchange string
	date     daterange.Selection
	sort     SortState
	tab      Tab

	// signals and stats are replaced together.
	signals []core.Signal
	stats   core.Statistics

	loading      bool
	showStats    bool
	showResults  bool
	showEmpty    bool
	emptyMessage string

	historyExchange string
	history         []core.HistoryEntry
	historyEmpty    bool

	fetchSeq   uint64
	historySeq uint64
}

func (s *state) hideResults() {
	s.showStats = false
	s.showResults = false
	s.showEmpty = false
	s.emptyMessage = ""
}

func (s *state) showEmptyState(msg string) {
	s.showEmpty = true
	s.emptyMessage = msg
}

func (s *state) view(exchanges []core.Exchange) View {
	v := View{
		Exchanges:       exchanges,
		Exchange:        s.exchange,
		Date:            s.date,
		Sort:            s.sort,
		Tab:             s.tab,
		Loading:         s.loading,
		ShowStats:       s.showStats,
		ShowResults:     s.showResults,
		ShowEmpty:       s.showEmpty,
		EmptyMessage:    s.emptyMessage,
		HistoryExchange: s.historyExchange,
		HistoryEmpty:    s.historyEmpty,
	}
	if s.showStats {
		v.Statistics = s.stats
	}
	// Hidden results have nothing to reorder.
	if s.showResults {
		v.Rows = Rows(s.signals, s.sort)
	}
	if len(s.history) > 0 {
		v.History = append([]core.HistoryEntry(nil), s.history...)
	}
	return v
}
