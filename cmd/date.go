// cmd/date.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/steadyhand/internal/dateutil"
)

// now is the clock the date command resolves against.
var now = time.Now

// dateObject is the structured form printed for the "object" format.
type dateObject struct {
	ISO     string `json:"iso"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Weekday string `json:"weekday"`
	Unix    int64  `json:"unix"`
}

func newDateCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "date [today|tomorrow|nextMonth|previousMonth|nextYear|previousYear|DATE]",
		Short: "Resolve a relative or explicit date and print it in a test-data format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			r := dateutil.Resolver{Now: now}
			out, err := r.Resolve(keyword, format)
			if err != nil {
				return err
			}
			if format != "" && format != dateutil.FormatObject {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			t, err := time.Parse(time.RFC3339, out)
			if err != nil {
				return fmt.Errorf("failed to read resolved date: %w", err)
			}
			return writeReport(cmd.OutOrStdout(), "json", dateObject{
				ISO:     out,
				Year:    t.Year(),
				Month:   int(t.Month()),
				Day:     t.Day(),
				Weekday: t.Weekday().String(),
				Unix:    t.Unix(),
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", dateutil.FormatObject, "output format: mm/dd/yyyy, dd.mm.yyyy, dd/mm/yyyy, yyyymmdd, yyyy/mm/dd, dd.mm.yyyy.HH.MM, datetime or object")
	return cmd
}
