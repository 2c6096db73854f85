package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"cargo-dispatch-service/internal/adapters/repositories"
	"cargo-dispatch-service/internal/adapters/roadnetwork"
	"cargo-dispatch-service/internal/config"
	"cargo-dispatch-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	ctx := context.Background()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/dispatch.json")
	if err := initAndSeed(ctx, conn, seedPath); err != nil {
		log.Fatal(err)
	}

	if uri := os.Getenv("GRAPH_URI"); uri != "" {
		if err := syncGraph(ctx, uri, seedPath); err != nil {
			log.Fatal(err)
		}
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}

// syncGraph mirrors the seeded road network into the graph database.
func syncGraph(ctx context.Context, uri, seedPath string) error {
	seed, err := repositories.LoadSeed(seedPath)
	if err != nil {
		return err
	}

	runner, err := roadnetwork.NewNeo4jClient(ctx, roadnetwork.Options{
		URI:      uri,
		Database: os.Getenv("GRAPH_DATABASE"),
		Username: os.Getenv("GRAPH_USERNAME"),
		Password: os.Getenv("GRAPH_PASSWORD"),
	})
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	locations, roads := seed.RoadNetwork()
	log.Printf("Syncing road network to graph database (%d locations, %d roads)...", len(locations), len(roads))
	if err := roadnetwork.NewNeo4jRoadNetwork(runner).Sync(ctx, locations, roads); err != nil {
		return err
	}
	log.Println("Graph sync complete.")
	return nil
}
