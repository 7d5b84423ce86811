package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newthinker/signaldesk/internal/app"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/newthinker/signaldesk/internal/render"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var signalsFlags struct {
	exchange      string
	days          string
	from          string
	to            string
	sortSentiment bool
	sortPL        string
	export        bool
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Fetch and show signals for an exchange",
	Example: `  signaldesk signals --exchange HKEX --days 3
  signaldesk signals --exchange BATS --from 2025-01-01 --to 2025-01-31 --sort-pl asc
  signaldesk signals --sort-sentiment --export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App, log *zap.Logger) error {
			return runSignals(cmd.Context(), cmd.OutOrStdout(), a, log)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [exchange]",
	Short: "Show daily signal history for an exchange",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App, log *zap.Logger) error {
			exchange := a.Config().DefaultExchange
			if len(args) == 1 {
				exchange = args[0]
			}
			return runHistory(cmd.Context(), cmd.OutOrStdout(), a, exchange)
		})
	},
}

var exchangesCmd = &cobra.Command{
	Use:   "exchanges",
	Short: "List the exchanges signals can be fetched for",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App, log *zap.Logger) error {
			fmt.Fprintln(cmd.OutOrStdout(), render.Exchanges(a.Exchanges(cmd.Context()), a.Config().DefaultExchange))
			return nil
		})
	},
}

func init() {
	f := signalsCmd.Flags()
	f.StringVarP(&signalsFlags.exchange, "exchange", "e", "", "exchange code (default from config)")
	f.StringVar(&signalsFlags.days, "days", "1", "days ago")
	f.StringVar(&signalsFlags.from, "from", "", "range start (YYYY-MM-DD), used with --to")
	f.StringVar(&signalsFlags.to, "to", "", "range end (YYYY-MM-DD), used with --from")
	f.BoolVar(&signalsFlags.sortSentiment, "sort-sentiment", false, "group bullish signals first")
	f.StringVar(&signalsFlags.sortPL, "sort-pl", "", "sort by P/L: asc or desc")
	f.BoolVar(&signalsFlags.export, "export", false, "save the fetched signals to export storage")

	rootCmd.AddCommand(signalsCmd, historyCmd, exchangesCmd)
}

// signalsFilter builds the date filter from the flags. A range is used
// when either --from or --to is given.
func signalsFilter() (daterange.Filter, error) {
	if signalsFlags.from != "" || signalsFlags.to != "" {
		return daterange.Resolve(daterange.ModeCustom, "", signalsFlags.from, signalsFlags.to)
	}
	return daterange.Resolve(daterange.ModeDays, signalsFlags.days, "", "")
}

func signalsSort() (dashboard.SortState, error) {
	st := dashboard.DefaultSortState()
	st.BySentiment = signalsFlags.sortSentiment
	if signalsFlags.sortPL != "" {
		dir, err := dashboard.ParseDirection(signalsFlags.sortPL)
		if err != nil {
			return st, err
		}
		st.ByPL = true
		st.PLDirection = dir
	}
	return st, nil
}

func runSignals(ctx context.Context, out io.Writer, a *app.App, log *zap.Logger) error {
	filter, err := signalsFilter()
	if err != nil {
		return err
	}
	st, err := signalsSort()
	if err != nil {
		return err
	}

	exchange := signalsFlags.exchange
	if exchange == "" {
		exchange = a.Config().DefaultExchange
	}

	a.Sessions().Restore(ctx)
	d := a.Dashboard()
	d.SetSort(st)

	err = withSpinner(fmt.Sprintf("Fetching %s signals (%s)", exchange, filter), func() error {
		_, err := d.Fetch(ctx, exchange, filter)
		return err
	})

	fmt.Fprint(out, render.View(d.View()))

	switch {
	case errors.Is(err, core.ErrNoSignals):
		return nil
	case err != nil:
		// The view already carries the message.
		return shownError{err}
	}

	if signalsFlags.export {
		loc, err := a.ExportToStorage(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", loc)
	}
	return nil
}

func runHistory(ctx context.Context, out io.Writer, a *app.App, exchange string) error {
	var entries []core.HistoryEntry
	err := withSpinner("Loading "+exchange+" history", func() error {
		var err error
		entries, err = a.Dashboard().LoadHistory(ctx, exchange)
		return err
	})

	fmt.Fprint(out, render.History(exchange, entries))

	if err != nil && !errors.Is(err, core.ErrNoHistory) {
		return err
	}
	return nil
}

// withSpinner shows a spinner on stderr while fn runs.
func withSpinner(desc string, fn func() error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	err := fn()
	close(done)
	bar.Finish()
	return err
}
