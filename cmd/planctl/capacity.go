package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/capacity-planner-go/internal/workdays"
	"github.com/arnavshah/capacity-planner-go/pkg/capacity"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type windowFlags struct {
	from string
	to   string
	days int
}

func (w *windowFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&w.from, "from", "", "Window start YYYY-MM-DD (defaults to the file, then today)")
	fs.StringVar(&w.to, "to", "", "Window end YYYY-MM-DD, exclusive (defaults to the file, then from + days)")
	fs.IntVar(&w.days, "days", 14, "Window length when no end date is given")
}

// resolve picks flag values over file values over defaults
func (w *windowFlags) resolve(fileFrom, fileTo *string, now time.Time) (time.Time, time.Time, error) {
	pick := func(flag string, file *string) string {
		if flag != "" {
			return flag
		}
		if file != nil {
			return *file
		}
		return ""
	}

	start := workdays.Day(now)
	if s := pick(w.from, fileFrom); s != "" {
		t, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", s)
		}
		start = t
	}

	if w.days <= 0 {
		return time.Time{}, time.Time{}, errors.New("--days must be > 0")
	}
	end := start.AddDate(0, 0, w.days)
	if s := pick(w.to, fileTo); s != "" {
		t, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", s)
		}
		end = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before %s", end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	return start, end, nil
}

func newCapacityCmd() *cobra.Command {
	var (
		file   string
		csvOut bool
		window windowFlags
	)

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Report capacity for the resources in a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input models.CapacityInput
			if err := readJSON(file, &input); err != nil {
				return err
			}

			start, end, err := window.resolve(input.From, input.To, time.Now())
			if err != nil {
				return err
			}

			resp := capacity.Report(input.Resources, start, end)
			if csvOut {
				return capacity.WriteCSV(cmd.OutOrStdout(), resp.Resources)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Capacity input JSON (- for stdin)")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Write CSV instead of JSON")
	window.register(cmd.Flags())
	return cmd
}
