package dashboard

import "github.com/newthinker/signaldesk/internal/core"

// Style classes shared by the renderers.
const (
	ClassBullish    = "bullish"
	ClassBearish    = "bearish"
	ClassValid      = "yes"
	ClassInvalid    = "no"
	ClassPLPositive = "pl-positive"
	ClassPLNegative = "pl-negative"
)

// Row is a signal ready for display.
type Row struct {
	core.Signal
	SentimentClass string `json:"sentiment_class"`
	ValidClass     string `json:"valid_class"`
	PLClass        string `json:"pl_class"`
	PLDisplay      string `json:"pl_display"`
}

// Rows orders signals and classes every row.
func Rows(signals []core.Signal, st SortState) []Row {
	ordered := Order(signals, st)
	rows := make([]Row, len(ordered))
	for i, s := range ordered {
		rows[i] = NewRow(s)
	}
	return rows
}

// NewRow classes one signal. Anything not bullish is styled bearish;
// zero and unparsable P/L get no class.
func NewRow(s core.Signal) Row {
	r := Row{
		Signal:         s,
		SentimentClass: ClassBearish,
		ValidClass:     ClassInvalid,
	}
	if s.Sentiment.IsBullish() {
		r.SentimentClass = ClassBullish
	}
	if s.Valid.IsValid() {
		r.ValidClass = ClassValid
	}
	if pl := s.PL(); pl.IsSome() {
		switch v := pl.Unwrap(); {
		case v > 0:
			r.PLClass = ClassPLPositive
		case v < 0:
			r.PLClass = ClassPLNegative
		}
	}
	if s.PLPercent != "" {
		r.PLDisplay = s.PLPercent + "%"
	}
	return r
}
