// Command main runs the database seeder for Taleboard.
package main

import (
	"flag"
	"log"

	"taleboard/config"
	"taleboard/database"
	"taleboard/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numTales := flag.Int("tales", 80, "Number of tales to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	manifestPath := flag.String("manifest", "", "Seed from a YAML manifest instead of random data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *manifestPath != "" {
		m, err := seed.LoadManifest(*manifestPath)
		if err != nil {
			log.Fatalf("Manifest load failed: %v", err)
		}
		if err := s.ApplyManifest(m); err != nil {
			log.Fatalf("Manifest seeding failed: %v", err)
		}
		log.Printf("Seeded %d manifest users", len(m.Users))
		return
	}

	if err := s.SeedCommunity(*numUsers, *numTales); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users and %d tales (password %q)", *numUsers, *numTales, seed.DefaultPassword)
}
