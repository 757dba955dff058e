// Command import loads an externally published festival or holiday table
// into the SQLite database.
//
// Usage:
//
//	go run ./cmd/import -table data/festivals-2082.yaml -db data/school.db
//
// This tool:
// 1. Parses the table (JSON or YAML, dates in AD or BS)
// 2. Creates/opens the SQLite database and runs migrations
// 3. Replaces every event of the table's category, within the table's
//    school, in a single transaction
// 4. Prints the entries that were rejected
//
// Re-running with the same table is idempotent: the category is replaced,
// not appended to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
)

func main() {
	// Parse command line flags
	tablePath := flag.String("table", "data/festivals-2082.yaml", "Path to a JSON or YAML event table")
	dbPath := flag.String("db", "data/school.db", "Path to SQLite database")
	school := flag.String("school", "", "Override the table's school_id (empty keeps the table's)")
	createdBy := flag.String("by", "import", "Value recorded as created_by")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*tablePath, *dbPath, *school, *createdBy, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(tablePath, dbPath, school, createdBy string, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse the table
	// =========================================================================
	logger.Info("reading table", slog.String("path", tablePath))

	table, err := calendar.LoadTable(tablePath)
	if err != nil {
		return err
	}
	if school != "" {
		table.SchoolID = school
	}

	logger.Info("parsed table",
		slog.String("category", table.Category),
		slog.String("school_id", table.SchoolID),
		slog.Int("entries", len(table.Events)),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Replace the category in one transaction
	// =========================================================================
	store := calendar.NewEventStore(db, logger)
	report, err := store.ImportTable(ctx, table, createdBy)
	if err != nil {
		return fmt.Errorf("import table: %w", err)
	}

	elapsed := time.Since(startTime)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Category:            %s\n", report.Category)
	fmt.Printf("School:              %s\n", schoolLabel(report.SchoolID))
	fmt.Printf("Events replaced:     %d\n", report.Deleted)
	fmt.Printf("Events inserted:     %d\n", report.Inserted)
	fmt.Printf("Entries rejected:    %d\n", len(report.Failed))
	for _, f := range report.Failed {
		fmt.Printf("  #%d %q: %s\n", f.Index, f.Title, f.Reason)
	}
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

func schoolLabel(id string) string {
	if id == "" {
		return "(all schools)"
	}
	return id
}
