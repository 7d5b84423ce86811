package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bullishStyle = cellStyle.Foreground(lipgloss.Color("10"))
	bearishStyle = cellStyle.Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
)

// classStyle maps a row class to its cell style.
func classStyle(class string) lipgloss.Style {
	switch class {
	case dashboard.ClassBullish, dashboard.ClassValid, dashboard.ClassPLPositive:
		return bullishStyle
	case dashboard.ClassBearish, dashboard.ClassInvalid, dashboard.ClassPLNegative:
		return bearishStyle
	default:
		return cellStyle
	}
}

// SignalHeaders are the signal table columns.
var SignalHeaders = []string{
	"Ticker", "Sentiment", "Trigger", "Stop", "R1", "R2", "R3",
	"Date", "Strategy", "Trigger Close", "Present Close", "P/L %", "Valid",
}

// HistoryHeaders are the history table columns.
var HistoryHeaders = []string{
	"Date", "Buy", "Valid Buy", "Sell", "Valid Sell",
	"Initial Ratio", "Actual Ratio", "Bullish Strength", "Bearish Strength",
}

// Statistics renders the summary block.
func Statistics(st core.Statistics) string {
	lines := []struct{ label, value string }{
		{"Buy signals", fmt.Sprint(st.BuySignals)},
		{"Sell signals", fmt.Sprint(st.SellSignals)},
		{"Valid buy", fmt.Sprint(st.ValidBuySignals)},
		{"Valid sell", fmt.Sprint(st.ValidSellSignals)},
		{"Initial ratio", InitialRatio(st)},
		{"Actual ratio", ActualRatio(st)},
		{"Bullish strength", bullishStyle.UnsetPadding().Render(BullishStrength(st))},
		{"Bearish strength", bearishStyle.UnsetPadding().Render(BearishStrength(st))},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Statistics"))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(labelStyle.Render(l.label))
		b.WriteString(l.value)
		b.WriteString("\n")
	}
	return b.String()
}

// Signals renders rows in the order given.
func Signals(rows []dashboard.Row) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.Ticker,
			SentimentLabel(r.Sentiment),
			r.TriggerPrice,
			r.StopPrice,
			r.Resistance1,
			r.Resistance2,
			r.Resistance3,
			r.Date,
			r.Strategy,
			r.TriggerDayClose,
			r.PresentClose,
			r.PLDisplay,
			ValidLabel(r.Valid),
		}
	}

	t := newTable(SignalHeaders, data).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			r := rows[row]
			switch col {
			case 0:
				return cellStyle.Bold(true)
			case 1:
				return classStyle(r.SentimentClass)
			case 11:
				return classStyle(r.PLClass)
			case 12:
				return classStyle(r.ValidClass)
			}
			return cellStyle
		})
	return t.String()
}

// History renders the daily aggregates for exchange, or the empty marker.
func History(exchange string, entries []core.HistoryEntry) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("History: " + exchange))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString(emptyStyle.Render("No history available"))
		b.WriteString("\n")
		return b.String()
	}

	data := make([][]string, len(entries))
	for i, e := range entries {
		data[i] = []string{
			e.Date,
			fmt.Sprint(e.BuySignals),
			fmt.Sprint(e.ValidBuySignals),
			fmt.Sprint(e.SellSignals),
			fmt.Sprint(e.ValidSellSignals),
			e.InitialRatio,
			e.ActualRatio,
			e.BullishStrength,
			e.BearishStrength,
		}
	}

	t := newTable(HistoryHeaders, data).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 7:
				return bullishStyle
			case col == 8:
				return bearishStyle
			}
			return cellStyle
		})
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// Exchanges lists the configured venues, marking current.
func Exchanges(exchanges []core.Exchange, current string) string {
	data := make([][]string, len(exchanges))
	for i, e := range exchanges {
		mark := ""
		if e.Code == current {
			mark = "*"
		}
		data[i] = []string{mark, e.Code, e.Name}
	}
	t := newTable([]string{"", "Code", "Name"}, data).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// View renders the signals tab of v: the empty state, or statistics and
// the signal table.
func View(v dashboard.View) string {
	var b strings.Builder
	header := fmt.Sprintf("%s  %s", v.Exchange, dimStyle.Render(string(v.Date.Mode)))
	if v.Email != "" {
		header += dimStyle.Render("  " + v.Email)
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	if v.ShowEmpty {
		b.WriteString(emptyStyle.Render(v.EmptyMessage))
		b.WriteString("\n")
		return b.String()
	}
	if v.ShowStats {
		b.WriteString(Statistics(v.Statistics))
		b.WriteString("\n")
	}
	if v.ShowResults {
		b.WriteString(Signals(v.Rows))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d signals", len(v.Rows))))
		b.WriteString("\n")
	}
	return b.String()
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...)
}
