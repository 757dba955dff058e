package main

import (
	"fmt"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

func (cli *commandLine) convert(adStr, bsStr, styleKey string) error {
	style, err := nepali.ParseStyle(styleKey)
	if err != nil {
		return err
	}

	var ad database.Date
	if adStr != "" {
		if ad, err = database.ParseDate(adStr); err != nil {
			return err
		}
	} else {
		bs, err := nepali.Parse(bsStr)
		if err != nil {
			return err
		}
		t, err := bs.ToAD()
		if err != nil {
			return err
		}
		ad = database.NewDate(t)
	}

	bs, err := nepali.FromAD(ad.Time)
	if err != nil {
		return err
	}
	formatted, err := bs.Format(style)
	if err != nil {
		return err
	}
	session, err := nepali.SessionLabel(ad.Time)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "AD:      %s (%s)\n", ad, calendar.DayName(ad.Time))
	fmt.Fprintf(cli.out, "BS:      %s\n", formatted)
	fmt.Fprintf(cli.out, "Session: %s\n", session)
	return nil
}
