// Command admin is the manual-ops tool: force-resolve a report whose
// restriction the sweep missed, vacate a report so a player can be
// re-reported, or dump statistics. It talks to the database directly.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"osureporter/bot/internal/storage"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	store := storage.NewStorageService(db, nil, false) // no redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <resolve|vacate|stats> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "resolve":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin resolve <submission_id>")
			os.Exit(1)
		}
		id := os.Args[2]
		if err := store.RestrictReport(id, time.Now()); err != nil {
			log.Fatalf("Error resolving report: %v", err)
		}
		if err := store.RestrictSubmission(id); err != nil {
			log.Fatalf("Error restricting submission: %v", err)
		}
		fmt.Printf("Report %s has been resolved.\n", id)
	case "vacate":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin vacate <submission_id>")
			os.Exit(1)
		}
		id := os.Args[2]
		if err := store.VacateReport(id); err != nil {
			log.Fatalf("Error vacating report: %v", err)
		}
		fmt.Printf("Report %s has been vacated.\n", id)
	case "stats":
		days := 30
		if len(os.Args) > 2 {
			days, err = strconv.Atoi(os.Args[2])
			if err != nil {
				fmt.Println("Invalid day count. Please provide an integer.")
				os.Exit(1)
			}
		}
		stats, err := store.Stats(time.Now().AddDate(0, 0, -days))
		if err != nil {
			log.Fatalf("Error computing stats: %v", err)
		}
		out, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(out))
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
