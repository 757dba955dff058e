package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
)

func (cli *commandLine) cleanAttendance(ctx context.Context, schoolID, fromStr, toStr string) error {
	from, err := calendar.ParseAnyDate(fromStr)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	to, err := calendar.ParseAnyDate(toStr)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	report, err := cli.ledger.Clean(ctx, schoolID, from, to)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "checked %d dates between %s and %s\n", report.DatesChecked, report.From, report.To)
	for _, d := range report.Dates {
		line := fmt.Sprintf("  %s %-16s %d records", d.Date, d.Reason, d.Records)
		if len(d.Events) > 0 {
			line += " (" + strings.Join(d.Events, ", ") + ")"
		}
		fmt.Fprintln(cli.out, line)
	}
	fmt.Fprintf(cli.out, "deleted %d records\n", report.Deleted)
	return nil
}
