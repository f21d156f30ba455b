package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rowett/primedigitsum/internal/report"
	"github.com/rowett/primedigitsum/internal/search"
	"github.com/rowett/primedigitsum/internal/store"
)

func main() {
	importPath := flag.String("import", "", "Results file written by dsearch --output to load after setup")
	start := flag.Uint64("start", 1, "Start value of the search that produced the imported file")
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./ds.db"
	}

	log.Printf("Setting up database at: %s\n", dbPath)

	db, err := store.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Drop and recreate tables
	log.Println("Recreating tables...")
	if err := store.Reset(db); err != nil {
		log.Fatalf("Failed to reset schema: %v", err)
	}

	if *importPath != "" {
		log.Printf("Importing results from %s...\n", *importPath)
		runID, n, err := importResults(db, *importPath, *start)
		if err != nil {
			log.Fatalf("Failed to import results: %v", err)
		}
		fmt.Printf("\nImported %d results as run %s\n", n, runID)
	}

	log.Println("Database setup completed successfully!")
}

// importResults records a results file as one run starting at start
func importResults(db *sql.DB, path string, start uint64) (string, int, error) {
	results, err := report.LoadFile(path)
	if err != nil {
		return "", 0, err
	}
	if len(results) == 0 {
		return "", 0, fmt.Errorf("%s holds no results", path)
	}

	first, last := results[0], results[len(results)-1]
	req := search.Request{
		Start:    start,
		End:      last.Value,
		MinRadix: first.Radix,
		MaxRadix: last.Radix,
	}
	if err := req.Validate(); err != nil {
		return "", 0, err
	}

	runID, err := store.RecordRun(db, req, search.Outcome{Results: results, LastMatch: last.Radix})
	if err != nil {
		return "", 0, err
	}
	return runID, len(results), nil
}
