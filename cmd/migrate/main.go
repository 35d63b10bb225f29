// Command migrate applies the service schema. Production servers never
// migrate on startup, so run "up" before rolling out a release.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"goyfeed/internal/config"
	"goyfeed/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema applied")
	case "status":
	default:
		return usage()
	}

	status, err := database.GetSchemaStatus(db)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("env=%s driver=%s pending=%t", cfg.Env, cfg.DBDriver, status.Pending())
	for _, t := range status.MissingTables {
		log.Printf("missing table: %s", t)
	}
	for _, i := range status.MissingIndexes {
		log.Printf("missing index: %s", i)
	}
	for _, c := range status.MissingConstraints {
		log.Printf("missing constraint: %s", c)
	}
	return nil
}
