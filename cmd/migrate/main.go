package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"repost_bot/internal/storage"
	"repost_bot/migrations"
)

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/bot.db"), "path to sqlite database")
	jsonPath := flag.String("json", envOrDefault("DESTINATIONS_PATH", "./data/db.json"), "path to destinations record")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] [-json path] <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  up           Migrate to the latest version")
		fmt.Fprintln(os.Stderr, "  up-one       Migrate one version up")
		fmt.Fprintln(os.Stderr, "  down         Roll back one version")
		fmt.Fprintln(os.Stderr, "  status       Show migration status")
		fmt.Fprintln(os.Stderr, "  version      Show current version")
		fmt.Fprintln(os.Stderr, "  reset        Roll back all migrations")
		fmt.Fprintln(os.Stderr, "  init-json    Create an empty destinations record if none exists")
		fmt.Fprintln(os.Stderr, "  import-json  Copy destinations from the JSON record into the database")
		fmt.Fprintln(os.Stderr, "  export-json  Copy destinations from the database into the JSON record")
		os.Exit(1)
	}

	cmd := args[0]
	switch cmd {
	case "init-json":
		if err := storage.InitJSONFile(*jsonPath); err != nil {
			log.Fatalf("%s: %v", cmd, err)
		}
		return
	case "import-json", "export-json":
		if err := copyDestinations(cmd, *dbPath, *jsonPath); err != nil {
			log.Fatalf("%s: %v", cmd, err)
		}
		return
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(migrations.Dialect); err != nil {
		log.Fatalf("set dialect: %v", err)
	}

	switch cmd {
	case "up":
		err = goose.Up(db, ".")
	case "up-one":
		err = goose.UpByOne(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	case "reset":
		err = goose.Reset(db, ".")
	default:
		log.Fatalf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// copyDestinations moves the whole destination set between the JSON
// record and the database, replacing whatever the target held.
func copyDestinations(cmd, dbPath, jsonPath string) error {
	ctx := context.Background()

	db, err := storage.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var from, to storage.Backend = storage.NewJSONFile(jsonPath), db
	if cmd == "export-json" {
		from, to = to, from
	}

	entries, err := from.Load(ctx)
	if err != nil {
		return err
	}
	// Reject a record that breaks the sign invariant before writing it anywhere.
	if _, err := storage.OpenDestinations(ctx, from); err != nil {
		return err
	}
	if err := to.Save(ctx, entries); err != nil {
		return err
	}
	log.Printf("%s: copied %d destinations", cmd, len(entries))
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
