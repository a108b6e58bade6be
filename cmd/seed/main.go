// Command main runs the database seeder for Inkraft.
package main

import (
	"context"
	"flag"
	"log"

	"inkraft/internal/config"
	"inkraft/internal/database"
	"inkraft/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 30, "Number of users to create")
	numPosts := flag.Int("posts", 120, "Number of posts to create")
	comments := flag.Int("comments", 6, "Maximum comments per published post")
	maxDays := flag.Int("days", 30, "Spread post dates over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip password hashing; seeded users cannot log in")
	dryRun := flag.Bool("dry-run", false, "Build the data without writing it")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	log.Println("Inkraft Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sum, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:         *numUsers,
		NumPosts:         *numPosts,
		CommentsPerPost:  *comments,
		ShouldClean:      *shouldClean,
		SkipBcrypt:       *fast,
		DryRun:           *dryRun,
		MaxDays:          *maxDays,
		RandomSeed:       *randomSeed,
		AutoApproveTrust: cfg.AutoApproveTrust,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d categories, %d users, %d posts, %d comments, %d votes, %d follows",
		sum.Categories, sum.Users, sum.Posts, sum.Comments, sum.Votes, sum.Follows)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
