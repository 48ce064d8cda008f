// Command main seeds the showcase database with reference and demo data.
package main

import (
	"flag"
	"log"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of demo users to create")
	numProjects := flag.Int("projects", 60, "Number of demo projects to create")
	shouldClean := flag.Bool("clean", false, "Remove projects, tags and competitions before seeding")
	catalogOnly := flag.Bool("catalog-only", false, "Only upsert tag categories, tags and competitions")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() && !*catalogOnly {
		log.Fatal("Refusing to generate demo data in production; use -catalog-only")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *catalogOnly {
		if err := seed.SeedCatalog(db); err != nil {
			log.Fatalf("Catalog seeding failed: %v", err)
		}
		log.Println("Catalog seeded.")
		return
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:    *numUsers,
		NumProjects: *numProjects,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		RandomSeed:  *randomSeed,
	})
	res, err := s.Seed()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	for status, n := range res.Projects {
		log.Printf("  %-10s %d", status, n)
	}
	log.Println("All done.")
}
