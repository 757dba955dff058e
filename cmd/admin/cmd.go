package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/zapponejosh/pathshala-api/internal/attendance"
	"github.com/zapponejosh/pathshala-api/internal/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *database.DB
	ledger *attendance.Ledger
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [VERSION]                          - up, up-by-one, up-to, down, down-to, reset, status, version")
	fmt.Fprintln(cli.out, "  clean-attendance -school ID -from DATE -to DATE    - delete records on dates that are no longer school days")
	fmt.Fprintln(cli.out, "  convert -ad YYYY-MM-DD | -bs YYYY/MM/DD [-style S] - convert between AD and BS")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cleanCmd := flag.NewFlagSet("clean-attendance", flag.ContinueOnError)
	cleanCmd.SetOutput(cli.out)
	cleanSchool := cleanCmd.String("school", "", "School whose records are checked (empty: records without a school)")
	cleanFrom := cleanCmd.String("from", "", "First date to check, AD YYYY-MM-DD or BS YYYY/MM/DD")
	cleanTo := cleanCmd.String("to", "", "Last date to check, AD or BS (default: -from)")

	convertCmd := flag.NewFlagSet("convert", flag.ContinueOnError)
	convertCmd.SetOutput(cli.out)
	convertAD := convertCmd.String("ad", "", "AD date, YYYY-MM-DD")
	convertBS := convertCmd.String("bs", "", "BS date, YYYY/MM/DD")
	convertStyle := convertCmd.String("style", "", "BS rendering: short, full_en or full_ne")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "clean-attendance":
		if err := cleanCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *cleanFrom == "" {
			cleanCmd.Usage()
			return errHelp
		}
		if *cleanTo == "" {
			*cleanTo = *cleanFrom
		}
		return cli.cleanAttendance(ctx, *cleanSchool, *cleanFrom, *cleanTo)

	case "convert":
		if err := convertCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*convertAD == "") == (*convertBS == "") {
			convertCmd.Usage()
			return errHelp
		}
		return cli.convert(*convertAD, *convertBS, *convertStyle)

	default:
		cli.printUsage()
		return errHelp
	}
}
