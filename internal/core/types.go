package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
)

// Sentiment is the categorical direction of a signal.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentUnknown Sentiment = ""
)

// Wire labels used by the signal backend.
const (
	wireBullish = "好"
	wireBearish = "淡"
	wireValid   = "Yes"
	wireInvalid = "No"
)

// IsBullish reports whether s is the bullish sentiment.
func (s Sentiment) IsBullish() bool {
	return s == SentimentBullish
}

// MarshalJSON encodes the sentiment with the backend's label.
func (s Sentiment) MarshalJSON() ([]byte, error) {
	switch s {
	case SentimentBullish:
		return json.Marshal(wireBullish)
	case SentimentBearish:
		return json.Marshal(wireBearish)
	default:
		return json.Marshal("")
	}
}

// UnmarshalJSON decodes the backend's label. Unrecognised labels map to
// SentimentUnknown.
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch label {
	case wireBullish:
		*s = SentimentBullish
	case wireBearish:
		*s = SentimentBearish
	default:
		*s = SentimentUnknown
	}
	return nil
}

// Validity is the backend-computed confirmation flag of a signal.
type Validity string

const (
	Valid   Validity = "valid"
	Invalid Validity = "invalid"
)

// IsValid reports whether v confirms the signal.
func (v Validity) IsValid() bool {
	return v == Valid
}

// MarshalJSON encodes the flag with the backend's label.
func (v Validity) MarshalJSON() ([]byte, error) {
	if v == Valid {
		return json.Marshal(wireValid)
	}
	return json.Marshal(wireInvalid)
}

// UnmarshalJSON decodes the backend's label; anything but "Yes" is invalid.
func (v *Validity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	if label == wireValid {
		*v = Valid
	} else {
		*v = Invalid
	}
	return nil
}

// Signal is one row of trading-signal data as produced by the backend.
// Price fields are kept as the backend formatted them.
type Signal struct {
	Ticker          string    `json:"ticker_symbol"`
	Sentiment       Sentiment `json:"sentiment"`
	TriggerPrice    string    `json:"trigger_price"`
	StopPrice       string    `json:"stop_price"`
	Resistance1     string    `json:"resistance1"`
	Resistance2     string    `json:"resistance2"`
	Resistance3     string    `json:"resistance3"`
	Date            string    `json:"date"`
	Strategy        string    `json:"strategy"`
	TriggerDayClose string    `json:"trigger_day_close"`
	PresentClose    string    `json:"present_close"`
	PLPercent       string    `json:"pl_percent"`
	Valid           Validity  `json:"valid_signal"`
}

// PL parses the profit/loss percent. Empty, non-numeric and NaN values
// yield None.
func (s Signal) PL() optional.Option[float64] {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s.PLPercent), "%"))
	if raw == "" {
		return optional.None[float64]()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return optional.None[float64]()
	}
	return optional.Some(v)
}

// PLOrMin returns the parsed P/L, or negative infinity when it is missing.
func (s Signal) PLOrMin() float64 {
	return s.PL().TakeOr(math.Inf(-1))
}

// Statistics are the backend's aggregate counts for one fetch.
type Statistics struct {
	BuySignals       int     `json:"buy_signals"`
	SellSignals      int     `json:"sell_signals"`
	ValidBuySignals  int     `json:"valid_buy_signals"`
	ValidSellSignals int     `json:"valid_sell_signals"`
	BullishPct       float64 `json:"bullish_pct"`
	BearishPct       float64 `json:"bearish_pct"`
}

// HistoryEntry is one pre-aggregated day of statistics for an exchange.
type HistoryEntry struct {
	Date             string `json:"date"`
	BuySignals       int    `json:"buy_signals"`
	ValidBuySignals  int    `json:"valid_buy_signals"`
	SellSignals      int    `json:"sell_signals"`
	ValidSellSignals int    `json:"valid_sell_signals"`
	InitialRatio     string `json:"initial_ratio"`
	ActualRatio      string `json:"actual_ratio"`
	BullishStrength  string `json:"bullish_strength"`
	BearishStrength  string `json:"bearish_strength"`
}

// Exchange is a market venue the backend can filter signals by.
type Exchange struct {
	Name string `json:"name" mapstructure:"name"`
	Code string `json:"code" mapstructure:"code" validate:"required"`
}

// DefaultExchanges mirrors the venues the signal backend knows about.
func DefaultExchanges() []Exchange {
	return []Exchange{
		{Name: "Hong Kong", Code: "HKEX"},
		{Name: "US", Code: "BATS"},
		{Name: "Shanghai", Code: "SSE_DLY"},
		{Name: "Shenzhen", Code: "ZSE_DLY"},
		{Name: "Forex", Code: "OANDA"},
		{Name: "HSI", Code: "HSI"},
	}
}
