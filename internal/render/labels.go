// Package render turns dashboard views into text for the terminal and
// supplies the localized labels shared with the web templates.
package render

import (
	"fmt"
	"strconv"

	"github.com/newthinker/signaldesk/internal/core"
)

// Localized labels.
const (
	LabelBullish   = "好"
	LabelBearish   = "淡"
	LabelValid     = "Yes"
	LabelInvalid   = "No"
	labelEffective = "有效"
)

// SentimentLabel returns the display label for s.
func SentimentLabel(s core.Sentiment) string {
	switch s {
	case core.SentimentBullish:
		return LabelBullish
	case core.SentimentBearish:
		return LabelBearish
	default:
		return ""
	}
}

// ValidLabel returns the display label for v.
func ValidLabel(v core.Validity) string {
	if v.IsValid() {
		return LabelValid
	}
	return LabelInvalid
}

// InitialRatio is "buy 好 : sell 淡".
func InitialRatio(st core.Statistics) string {
	return fmt.Sprintf("%d %s : %d %s", st.BuySignals, LabelBullish, st.SellSignals, LabelBearish)
}

// ActualRatio is "valid buy 好 : valid sell 淡".
func ActualRatio(st core.Statistics) string {
	return fmt.Sprintf("%d %s : %d %s", st.ValidBuySignals, LabelBullish, st.ValidSellSignals, LabelBearish)
}

// BullishStrength is "buy 好 : valid buy 有效 (pct%)".
func BullishStrength(st core.Statistics) string {
	return fmt.Sprintf("%d %s : %d %s (%s%%)", st.BuySignals, LabelBullish, st.ValidBuySignals, labelEffective, Percent(st.BullishPct))
}

// BearishStrength is "sell 淡 : valid sell 有效 (pct%)".
func BearishStrength(st core.Statistics) string {
	return fmt.Sprintf("%d %s : %d %s (%s%%)", st.SellSignals, LabelBearish, st.ValidSellSignals, labelEffective, Percent(st.BearishPct))
}

// Percent prints a percentage the way the backend sent it, without
// padding zeros.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
