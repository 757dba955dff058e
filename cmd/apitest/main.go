// Command apitest runs a smoke suite against a running school calendar API.
//
// Read-only checks always run. Pass -key to also create events and mark
// attendance under a throwaway school scope.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/api"
	"github.com/zapponejosh/pathshala-api/internal/calendar"
)

// =============================================================================
// Response Types
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	school       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		school:  fmt.Sprintf("apitest-%d", time.Now().Unix()),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("School Calendar API Test Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Printf("School:   %s\n", tr.school)
	fmt.Println()

	// Run test groups
	tr.testHealth()
	tr.testToday()
	tr.testConversions()
	tr.testMonth()
	tr.testEdgeCases()
	if tr.apiKey != "" {
		tr.testAttendanceGate()
	} else {
		tr.printSection("Attendance Gate (skipped, no -key)")
	}

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if _, err := tr.get("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}
	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testToday() {
	tr.printSection("Today")

	var info api.DateInfo
	if _, err := tr.get("/api/v1/dates/today", &info); err != nil {
		tr.recordError("Today", err.Error())
		return
	}
	tr.recordSuccess(fmt.Sprintf("Today (%s): %s, %s, session %s",
		info.Date, info.Formats["full_en"], info.Classification.Kind, info.Session))
}

func (tr *TestRunner) testConversions() {
	tr.printSection("Conversions")

	testCases := []struct {
		ad      string
		bs      string
		weekday string
	}{
		{"1943-04-14", "2000/01/01", "Wednesday"},
		{"2025-04-14", "2082/01/01", "Monday"},
		{"2025-10-11", "2082/06/25", "Saturday"},
		{"2025-10-17", "2082/07/01", "Friday"},
		{"2025-10-28", "2082/07/12", "Tuesday"},
	}

	for _, tc := range testCases {
		var fromAD api.Conversion
		if _, err := tr.get("/api/v1/convert?ad="+tc.ad, &fromAD); err != nil {
			tr.recordError(tc.ad, err.Error())
			continue
		}
		var fromBS api.Conversion
		if _, err := tr.get("/api/v1/convert?bs="+tc.bs, &fromBS); err != nil {
			tr.recordError(tc.bs, err.Error())
			continue
		}

		switch {
		case fromAD.Formatted != tc.bs:
			tr.recordError(tc.ad, fmt.Sprintf("Expected BS %s, got %s", tc.bs, fromAD.Formatted))
		case fromBS.AD.String() != tc.ad:
			tr.recordError(tc.bs, fmt.Sprintf("Expected AD %s, got %s", tc.ad, fromBS.AD))
		case fromAD.Weekday != tc.weekday:
			tr.recordError(tc.ad, fmt.Sprintf("Expected %s, got %s", tc.weekday, fromAD.Weekday))
		default:
			tr.recordSuccess(fmt.Sprintf("%s <-> %s (%s)", tc.ad, tc.bs, tc.weekday))
		}
	}
}

func (tr *TestRunner) testMonth() {
	tr.printSection("Month View")

	var view calendar.MonthView
	if _, err := tr.get("/api/v1/calendar/2082/1", &view); err != nil {
		tr.recordError("Baisakh 2082", err.Error())
		return
	}
	if len(view.Days) == 30 && view.Days[0].Date.String() == "2025-04-14" {
		tr.recordSuccess(fmt.Sprintf("Baisakh 2082: 30 days, %d school days", view.SchoolDays))
	} else {
		tr.recordError("Baisakh 2082", fmt.Sprintf("Expected 30 days from 2025-04-14, got %d", len(view.Days)))
	}

	if tr.verbose {
		for kind, n := range view.Counts {
			fmt.Printf("    %-22s %d\n", kind, n)
		}
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	cases := []struct {
		path string
		want int
		desc string
	}{
		{"/api/v1/dates/invalid", http.StatusBadRequest, "Invalid date format rejected"},
		{"/api/v1/dates/1900-01-01", http.StatusBadRequest, "Date before BS 2000 rejected"},
		{"/api/v1/convert?ad=2025-04-14&bs=2082/01/01", http.StatusBadRequest, "Both ad and bs rejected"},
		{"/api/v1/convert?bs=2082/02/33", http.StatusBadRequest, "Nonexistent BS day rejected"},
		{"/api/v1/convert?ad=2025-04-14&style=long", http.StatusBadRequest, "Unknown style rejected"},
		{"/api/v1/calendar/2082/13", http.StatusBadRequest, "Month 13 rejected"},
		{"/api/v1/calendar/2091/1", http.StatusBadRequest, "Year past the table rejected"},
	}
	for _, c := range cases {
		status, err := tr.status(http.MethodGet, c.path, nil)
		if err != nil {
			tr.recordError(c.path, err.Error())
			continue
		}
		if status == c.want {
			tr.recordSuccess(c.desc)
		} else {
			tr.recordError(c.path, fmt.Sprintf("Expected HTTP %d, got %d", c.want, status))
		}
	}
}

func (tr *TestRunner) testAttendanceGate() {
	tr.printSection("Attendance Gate")

	// Dashain Tika 2082 falls on 2025-10-02 (Thursday).
	event := map[string]any{
		"title":     "Dashain Tika",
		"date":      "2025-10-02",
		"type":      "festival",
		"school_id": tr.school,
	}
	if status, err := tr.status(http.MethodPost, "/api/v1/events", event); err != nil || status != http.StatusCreated {
		tr.recordError("Create festival", fmt.Sprintf("HTTP %d %v", status, err))
		return
	}
	tr.recordSuccess("Festival created")

	cases := []struct {
		date string
		want int
		desc string
	}{
		{"2025-10-02", http.StatusUnprocessableEntity, "Festival rejected"},
		{"2025-11-08", http.StatusUnprocessableEntity, "Saturday rejected"},
		{"2025-10-28", http.StatusCreated, "Tuesday accepted"},
		{"2025-10-28", http.StatusConflict, "Second mark on the same day is a conflict"},
	}
	for _, c := range cases {
		body := map[string]any{"student_id": "S-APITEST", "date": c.date, "status": "present"}
		status, err := tr.status(http.MethodPost, "/api/v1/attendance", body)
		if err != nil {
			tr.recordError(c.date, err.Error())
			continue
		}
		if status == c.want {
			tr.recordSuccess(fmt.Sprintf("%s: %s", c.date, c.desc))
		} else {
			tr.recordError(c.date, fmt.Sprintf("Expected HTTP %d, got %d", c.want, status))
		}
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (tr *TestRunner) do(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-School-ID", tr.school)
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}
	return tr.client.Do(req)
}

// get fetches path and decodes the data field of a successful response into target.
func (tr *TestRunner) get(path string, target any) (*APIResponse, error) {
	resp, err := tr.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("API error: %s", errMsg)
	}

	if target != nil {
		if err := json.Unmarshal(apiResp.Data, target); err != nil {
			return nil, fmt.Errorf("data parse error: %w", err)
		}
	}
	return &apiResp, nil
}

func (tr *TestRunner) status(method, path string, body any) (int, error) {
	resp, err := tr.do(method, path, body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All tests passed! ✓")
	} else {
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key; enables the write checks")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
