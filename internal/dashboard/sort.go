package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/signaldesk/internal/core"
)

// Direction is the P/L ordering direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

// SortState holds the display toggles. It never affects what is fetched.
type SortState struct {
	BySentiment bool      `json:"by_sentiment"`
	ByPL        bool      `json:"by_pl"`
	PLDirection Direction `json:"pl_direction"`
}

// DefaultSortState has both toggles off and descending P/L.
func DefaultSortState() SortState {
	return SortState{PLDirection: Descending}
}

// Order returns a sorted copy of signals. The sentiment pass runs first
// and the P/L pass last, so P/L order dominates when both are on.
// Both passes are stable; equal rows keep arrival order.
func Order(signals []core.Signal, st SortState) []core.Signal {
	out := make([]core.Signal, len(signals))
	copy(out, signals)

	if st.BySentiment {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Sentiment.IsBullish() && !out[j].Sentiment.IsBullish()
		})
	}

	if st.ByPL {
		ascending := st.PLDirection == Ascending
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].PLOrMin(), out[j].PLOrMin()
			if ascending {
				return a < b
			}
			return a > b
		})
	}

	return out
}
