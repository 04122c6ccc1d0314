// Package main is a diagnostic tool for testing database connectivity and
// inspecting live registry data. It connects to the database, queries the
// committees and memberships tables, and prints a summary to stdout. The
// binary exits with a non-zero code on any failure so it can be embedded in
// health checks or CI/CD pipeline steps to gate deployments on a reachable,
// populated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "committee"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=committee password=%s dbname=committee_registry sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Check committees
	fmt.Println("=== COMMITTEES ===")
	rows, err := db.Query("SELECT id, name, status, monthly_amount, duration_months FROM committees")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, status, monthlyAmount string
		var durationMonths int
		if err := rows.Scan(&id, &name, &status, &monthlyAmount, &durationMonths); err != nil {
			log.Printf("Warning: failed to scan committee row: %v", err)
			continue
		}
		fmt.Printf("Committee: %s [%s] %s/month x %d months (ID: %s)\n", name, status, monthlyAmount, durationMonths, id)
	}

	// Check memberships
	fmt.Println("\n=== MEMBERSHIPS ===")
	rows2, err := db.Query("SELECT id, committee_id, member_id, status, left_at FROM memberships")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var id, committeeID, memberID, status string
		var leftAt *string
		if err := rows2.Scan(&id, &committeeID, &memberID, &status, &leftAt); err != nil {
			log.Printf("Warning: failed to scan membership row: %v", err)
			continue
		}
		departed := ""
		if leftAt != nil {
			departed = fmt.Sprintf(" (left %s)", *leftAt)
		}
		fmt.Printf("Membership: %s -> committee %s [%s]%s (ID: %s)\n", memberID, committeeID, status, departed, id)
		count++
	}

	if count == 0 {
		fmt.Println("No memberships found!")
	}
}
