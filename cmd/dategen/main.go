package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/config"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// This script prints the AD span of every month in a BS year, with the
// number of weekly rest days in each, to help prepare festival and holiday
// tables before they are imported.

func main() {
	year := flag.Int("year", 2082, "BS year to print")
	rest := flag.String("rest", "saturday", "Weekly rest day")
	flag.Parse()

	restDay, err := config.ParseWeekday(*rest)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	fmt.Printf("=== BS %d (session %d-%02d) ===\n\n", *year, *year, (*year+1)%100)
	fmt.Printf("%-3s %-9s %-8s %-10s %-10s %4s %5s\n", "#", "Month", "", "Starts", "Ends", "Days", "Rest")

	totalDays, totalRest := 0, 0
	for month := 1; month <= 12; month++ {
		first, last, err := calendar.BSMonthRange(*year, month)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		days, restDays := 0, 0
		for d := first; !d.After(last.Time); d = d.AddDays(1) {
			days++
			if d.Weekday() == restDay {
				restDays++
			}
		}
		totalDays += days
		totalRest += restDays

		fmt.Printf("%-3d %-9s %-8s %-10s %-10s %4d %5d\n",
			month, nepali.MonthName(month), nepali.MonthNameNe(month),
			first, last, days, restDays)
	}

	fmt.Println()
	fmt.Printf("Total: %d days, %d %s rest days, %d weekdays before events\n",
		totalDays, totalRest, restDay, totalDays-totalRest)
}
