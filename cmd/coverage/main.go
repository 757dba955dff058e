// Command coverage walks every month view of one or more BS years through a
// running API and checks that each month is complete and consistently
// classified.
//
// Usage:
//
//	go run ./cmd/coverage -url http://localhost:8080 -start 2082 -years 2 -school janata
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// APIResponse matches the API response envelope.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// MonthResult holds the outcome for one BS month.
type MonthResult struct {
	Year       int                   `json:"year"`
	Month      int                   `json:"month"`
	Days       int                   `json:"days"`
	SchoolDays int                   `json:"school_days"`
	Counts     map[calendar.Kind]int `json:"counts"`
	Problems   []string              `json:"problems,omitempty"`
}

func (r MonthResult) ok() bool { return len(r.Problems) == 0 }

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	startYear := flag.Int("start", 2082, "First BS year")
	years := flag.Int("years", 1, "Number of BS years to walk")
	school := flag.String("school", "", "School scope (empty uses the server default)")
	verbose := flag.Bool("v", false, "Verbose output (show each month)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	fmt.Println("================================================================")
	fmt.Println("School Calendar API - Month Coverage")
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", *baseURL)
	fmt.Printf("BS Years:    %d to %d\n", *startYear, endYear)
	fmt.Printf("School:      %s\n", orDefault(*school, "(server default)"))
	fmt.Println()

	// Check if server is reachable
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	var results []MonthResult
	for year := *startYear; year <= endYear; year++ {
		for month := 1; month <= 12; month++ {
			r := fetchMonth(client, *baseURL, *school, year, month)
			results = append(results, r)
			if *verbose {
				status := "✓"
				if !r.ok() {
					status = "✗"
				}
				fmt.Printf("  %s %d/%02d %-8s %2d days, %2d school days\n",
					status, year, month, nepali.MonthName(month), r.Days, r.SchoolDays)
				for _, p := range r.Problems {
					fmt.Printf("      %s\n", p)
				}
			}
		}
	}

	failed := printSummary(results, *startYear, endYear)

	if *outputFile != "" {
		saveResults(*outputFile, results)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func fetchMonth(client *http.Client, baseURL, school string, year, month int) MonthResult {
	result := MonthResult{Year: year, Month: month}

	u := fmt.Sprintf("%s/api/v1/calendar/%d/%d", baseURL, year, month)
	if school != "" {
		u += "?school=" + url.QueryEscape(school)
	}
	resp, err := client.Get(u)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("connection error: %v", err))
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("read error: %v", err))
		return result
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("parse error: %v", err))
		return result
	}
	if !apiResp.Success {
		msg := "unknown error"
		if apiResp.Error != nil {
			msg = apiResp.Error.Message
		}
		result.Problems = append(result.Problems, msg)
		return result
	}

	var view calendar.MonthView
	if err := json.Unmarshal(apiResp.Data, &view); err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("data parse error: %v", err))
		return result
	}

	result.Days = len(view.Days)
	result.SchoolDays = view.SchoolDays
	result.Counts = view.Counts
	result.Problems = checkMonth(&view)
	return result
}

// checkMonth returns every inconsistency found in a month view.
func checkMonth(view *calendar.MonthView) []string {
	var problems []string

	want, err := nepali.DaysInMonth(view.Year, view.Month)
	if err != nil {
		return []string{err.Error()}
	}
	if len(view.Days) != want {
		problems = append(problems, fmt.Sprintf("got %d days, want %d", len(view.Days), want))
	}

	counts := make(map[calendar.Kind]int)
	schoolDays := 0
	for i, d := range view.Days {
		if i > 0 {
			if prev := view.Days[i-1].Date; d.Date.Time.Sub(prev.Time) != 24*time.Hour {
				problems = append(problems, fmt.Sprintf("gap between %s and %s", prev, d.Date))
			}
		}
		if d.BSDate == nil || d.BSDate.Year != view.Year || d.BSDate.Month != view.Month || d.BSDate.Day != i+1 {
			problems = append(problems, fmt.Sprintf("%s: BS date %v is not day %d", d.Date, d.BSDate, i+1))
		}
		if d.SchoolDay != d.Kind.IsSchoolDay() {
			problems = append(problems, fmt.Sprintf("%s: %s marked is_school_day=%t", d.Date, d.Kind, d.SchoolDay))
		}
		if d.Weekday != calendar.DayName(d.Date.Time) {
			problems = append(problems, fmt.Sprintf("%s: weekday %s", d.Date, d.Weekday))
		}
		counts[d.Kind]++
		if d.SchoolDay {
			schoolDays++
		}
	}

	if schoolDays != view.SchoolDays {
		problems = append(problems, fmt.Sprintf("school_days=%d, counted %d", view.SchoolDays, schoolDays))
	}
	for kind, n := range counts {
		if view.Counts[kind] != n {
			problems = append(problems, fmt.Sprintf("counts[%s]=%d, counted %d", kind, view.Counts[kind], n))
		}
	}
	return problems
}

func printSummary(results []MonthResult, startYear, endYear int) int {
	fmt.Println()
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")

	failed := 0
	for year := startYear; year <= endYear; year++ {
		totals := make(map[calendar.Kind]int)
		days, schoolDays, bad := 0, 0, 0
		for _, r := range results {
			if r.Year != year {
				continue
			}
			days += r.Days
			schoolDays += r.SchoolDays
			for k, n := range r.Counts {
				totals[k] += n
			}
			if !r.ok() {
				bad++
			}
		}
		failed += bad

		status := "✓"
		if bad > 0 {
			status = "✗"
		}
		fmt.Printf("  %s %d: %d days, %d school days, %d months with problems\n",
			status, year, days, schoolDays, bad)

		kinds := make([]string, 0, len(totals))
		for k := range totals {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("      %-22s %d\n", k, totals[calendar.Kind(k)])
		}
	}

	if failed == 0 {
		fmt.Println("\nNo problems found.")
		return 0
	}

	fmt.Println()
	fmt.Println("================================================================")
	fmt.Println("PROBLEMS")
	fmt.Println("================================================================")
	for _, r := range results {
		if r.ok() {
			continue
		}
		fmt.Printf("\n%d/%02d %s\n", r.Year, r.Month, nepali.MonthName(r.Month))
		for _, p := range r.Problems {
			fmt.Printf("  - %s\n", p)
		}
	}
	fmt.Println()
	return failed
}

func saveResults(filename string, results []MonthResult) {
	output := struct {
		GeneratedAt string        `json:"generated_at"`
		Months      []MonthResult `json:"months"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Months:      results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
