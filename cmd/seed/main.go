// Command main runs the database seeder for the blog.
package main

import (
	"flag"
	"log"

	"myblog/internal/config"
	"myblog/internal/database"
	"myblog/internal/seed"
)

func main() {
	// Parse command line flags
	fixturePath := flag.String("fixture", "", "YAML fixture to load (defaults to the built-in demo data)")
	numUsers := flag.Int("users", 0, "Number of random users to generate")
	numPosts := flag.Int("posts", 0, "Number of random posts to generate")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	randomSeed := flag.Int64("seed", 0, "Seed for generated content (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{RandomSeed: *randomSeed})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	fixture, err := seed.LoadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("❌ Fixture error: %v", err)
	}
	if err := s.ApplyFixture(fixture); err != nil {
		log.Fatalf("❌ Fixture seeding failed: %v", err)
	}

	if *numUsers > 0 {
		log.Printf("Generating %d users and %d posts\n", *numUsers, *numPosts)
		if _, err := s.SeedRandom(*numUsers, *numPosts); err != nil {
			log.Fatalf("❌ Random seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 Users without an explicit password use: %s\n", seed.DefaultPassword)
}
