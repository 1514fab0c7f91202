// Command main runs the database seeder.
package main

import (
	"flag"
	"log"

	"social/internal/config"
	"social/internal/database"
	"social/internal/middleware"
	"social/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	numTags := flag.Int("tags", defaults.NumTags, "Number of tags to create")
	numChats := flag.Int("chats", defaults.NumChats, "Number of chats to create")
	messagesPerChat := flag.Int("messages", defaults.MessagesPerChat, "Messages per chat")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	verbose := flag.Bool("v", false, "Log every generated record in dry-run mode")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	scenario := flag.String("scenario", "", "YAML scenario file, or a built-in name such as demo")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:        *numUsers,
		PostsPerUser:    *postsPerUser,
		NumTags:         *numTags,
		NumChats:        *numChats,
		MessagesPerChat: *messagesPerChat,
		ShouldClean:     *shouldClean,
		DryRun:          *dryRun,
		Verbose:         *verbose,
		MaxDays:         defaults.MaxDays,
		RandSeed:        *randSeed,
	})

	var sum seed.Summary
	if *scenario != "" {
		log.Printf("Applying scenario %s (clean=%v)", *scenario, *shouldClean)
		sc, err := seed.LoadScenario(*scenario)
		if err != nil {
			log.Fatalf("Scenario load failed: %v", err)
		}
		sum, err = s.ApplyScenario(sc)
		if err != nil {
			log.Fatalf("Scenario seeding failed: %v", err)
		}
	} else {
		log.Printf("Target: %d users, %d posts each, %d chats, clean=%v", *numUsers, *postsPerUser, *numChats, *shouldClean)
		sum, err = s.Run()
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Printf("Done: %s", sum)
	log.Printf("Generated users have the password: %s", seed.DefaultPassword)
}
