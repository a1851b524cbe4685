//go:build ignore

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Standalone backfill for databases created before the batch_counters
// table existed. Scans every batch identifier (PREFIX-BUCKET-SEQ), keeps
// the highest sequence per (prefix, bucket), and installs it as the
// counter floor so new allocations continue after the legacy numbering.
// The V2 schema migration does the same thing automatically; this tool
// exists for re-running against a copied or restored database.

var identifierRe = regexp.MustCompile(`^(.+)-(\d{6})-(\d{3,})$`)

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview backfill without writing")
	dbPathFlag := flag.String("db", "", "Database path (default ~/.weft/weft.db)")
	flag.Parse()

	dbPath := *dbPathFlag
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home dir: %v\n", err)
			os.Exit(1)
		}
		dbPath = filepath.Join(homeDir, ".weft", "weft.db")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	floors, skipped, err := scanIdentifiers(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning batches: %v\n", err)
		os.Exit(1)
	}

	if len(floors) == 0 {
		fmt.Println("No parseable identifiers found, nothing to backfill")
		return
	}

	fmt.Printf("Found %d (prefix, bucket) pair(s) to seed", len(floors))
	if skipped > 0 {
		fmt.Printf(" (%d unparseable identifier(s) skipped)", skipped)
	}
	fmt.Println(":")
	fmt.Println()
	for key, seq := range floors {
		fmt.Printf("  %s -> last_seq %d\n", key, seq)
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("=== DRY RUN - No changes made ===")
		return
	}

	fmt.Println("=== Executing backfill ===")
	seeded := 0
	for key, seq := range floors {
		parts := strings.SplitN(key, "/", 2)
		if err := seedCounter(db, parts[0], parts[1], seq); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding %s: %v\n", key, err)
			continue
		}
		seeded++
	}

	fmt.Printf("\n=== Backfill complete: %d/%d counters seeded ===\n", seeded, len(floors))
}

func scanIdentifiers(db *sql.DB) (map[string]int, int, error) {
	rows, err := db.Query("SELECT identifier FROM batches")
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	floors := map[string]int{}
	skipped := 0
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, 0, err
		}

		m := identifierRe.FindStringSubmatch(identifier)
		if m == nil {
			skipped++
			continue
		}
		seq, err := strconv.Atoi(m[3])
		if err != nil {
			skipped++
			continue
		}

		key := m[1] + "/" + m[2]
		if seq > floors[key] {
			floors[key] = seq
		}
	}

	return floors, skipped, rows.Err()
}

func seedCounter(db *sql.DB, prefix, bucket string, lastSeq int) error {
	_, err := db.Exec(`
		INSERT INTO batch_counters (prefix, bucket, last_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(prefix, bucket) DO UPDATE SET last_seq = MAX(last_seq, excluded.last_seq)
	`, prefix, bucket, lastSeq)
	return err
}
