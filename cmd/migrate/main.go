package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/infrastructure/config"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"github.com/shopline/backend/internal/infrastructure/migration"
	"github.com/shopline/backend/migrations"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(logger.Options{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var source fs.FS = migrations.FS
	if migrationsPath != "" {
		source = os.DirFS(migrationsPath)
	}

	switch command {
	case "create":
		// create writes to disk, so it always needs a real directory
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		entries, err := migration.ListMigrations(source)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(entries) == 0 {
			log.Info("No migrations found")
			return
		}
		for _, e := range entries {
			fmt.Printf("  %06d  %s\n", e.Version, e.Name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, source, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		n, convErr := strconv.Atoi(argAt(args, 1))
		if convErr != nil {
			log.Fatal("Invalid step count. Usage: migrate step <n>", zap.Error(convErr))
		}
		err = m.Steps(n)
	case "goto":
		version, convErr := strconv.ParseUint(argAt(args, 1), 10, 32)
		if convErr != nil {
			log.Fatal("Invalid version. Usage: migrate goto <version>", zap.Error(convErr))
		}
		err = m.GoTo(uint(version))
	case "force":
		version, convErr := strconv.Atoi(argAt(args, 1))
		if convErr != nil {
			log.Fatal("Invalid version. Usage: migrate force <version>", zap.Error(convErr))
		}
		err = m.Force(version)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal("Failed to read version", zap.Error(verr))
		}
		if version == 0 {
			log.Info("No migrations applied")
			return
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func printUsage() {
	fmt.Println(`Shopline database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate up or down to a version
  version               Show the applied version
  force <version>       Mark a version as applied without running it
  create <name> [desc]  Create a new up/down pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: the embedded set)
  -log-level string     Log level (default: info)`)
}
