// Package daterange resolves the user's date selection into the parameters
// the signal backend accepts.
package daterange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/signaldesk/internal/core"
)

// DateLayout is the calendar date format exchanged with the backend.
const DateLayout = "2006-01-02"

// DefaultDaysAgo matches the backend's fallback when days_ago is omitted.
const DefaultDaysAgo = 1

// Mode selects which input group drives the filter.
type Mode string

const (
	ModeDays   Mode = "days"
	ModeCustom Mode = "custom"
)

// ParseMode converts a form or flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDays:
		return ModeDays, nil
	case ModeCustom:
		return ModeCustom, nil
	default:
		return "", core.WrapError(core.ErrInvalidDateFilter, fmt.Errorf("unknown date mode %q", s))
	}
}

// Filter is exactly one of {days_ago} or {from_date, to_date}.
type Filter struct {
	DaysAgo  *int
	FromDate string
	ToDate   string
}

// Params returns the request fields contributed by the filter.
func (f Filter) Params() map[string]any {
	if f.DaysAgo != nil {
		return map[string]any{"days_ago": *f.DaysAgo}
	}
	return map[string]any{"from_date": f.FromDate, "to_date": f.ToDate}
}

// MarshalJSON encodes only the active parameter shape.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Params())
}

// String is used in logs.
func (f Filter) String() string {
	if f.DaysAgo != nil {
		return fmt.Sprintf("last %d days", *f.DaysAgo)
	}
	return f.FromDate + ".." + f.ToDate
}

// Days builds a relative filter.
func Days(n int) Filter {
	return Filter{DaysAgo: &n}
}

// Range builds an explicit filter. Dates are not checked.
func Range(from, to string) Filter {
	return Filter{FromDate: from, ToDate: to}
}

type rangeInput struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

var validate = validator.New()

// Resolve turns the raw inputs of the selected mode into a Filter.
// The days input must be an integer; range inputs must be calendar dates.
// Ordering of from/to is left to the backend.
func Resolve(mode Mode, daysInput, fromInput, toInput string) (Filter, error) {
	switch mode {
	case ModeDays:
		n, err := strconv.Atoi(strings.TrimSpace(daysInput))
		if err != nil {
			return Filter{}, core.WrapError(core.ErrInvalidDateFilter,
				fmt.Errorf("days ago must be an integer, got %q", daysInput))
		}
		return Days(n), nil
	case ModeCustom:
		in := rangeInput{From: strings.TrimSpace(fromInput), To: strings.TrimSpace(toInput)}
		if err := validate.Struct(in); err != nil {
			return Filter{}, core.WrapError(core.ErrInvalidDateFilter, err)
		}
		return Range(in.From, in.To), nil
	default:
		return Filter{}, core.WrapError(core.ErrInvalidDateFilter, fmt.Errorf("unknown date mode %q", mode))
	}
}

// Selection is the date picker state shown on the page.
type Selection struct {
	Mode     Mode   `json:"mode"`
	DaysAgo  string `json:"days_ago"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// DefaultSelection starts in days mode with a one-week custom range
// prefilled, ending at now.
func DefaultSelection(now time.Time) Selection {
	return Selection{
		Mode:     ModeDays,
		DaysAgo:  strconv.Itoa(DefaultDaysAgo),
		FromDate: now.AddDate(0, 0, -7).Format(DateLayout),
		ToDate:   now.Format(DateLayout),
	}
}

// ShowDays and ShowRange tell the view which input group is visible.
func (s Selection) ShowDays() bool  { return s.Mode == ModeDays }
func (s Selection) ShowRange() bool { return s.Mode == ModeCustom }

// Resolve resolves the selection's active inputs.
func (s Selection) Resolve() (Filter, error) {
	return Resolve(s.Mode, s.DaysAgo, s.FromDate, s.ToDate)
}
