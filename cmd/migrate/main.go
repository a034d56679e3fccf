package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	appidentity "github.com/rms/backend/internal/application/identity"
	"github.com/rms/backend/internal/infrastructure/config"
	"github.com/rms/backend/internal/infrastructure/logger"
	"github.com/rms/backend/internal/infrastructure/migration"
	"github.com/rms/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", defaultMigrationsPath, "Path to migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"}, "rms-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	migrationsPath = absPath

	// Commands that only touch the filesystem
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(migrationsPath, args[1], description)
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
		names, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, n := range names {
			fmt.Println("  -", n)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if command == "bootstrap-admin" {
		bootstrapAdmin(db, args[1:], log)
		return
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	m, err := migration.New(sqlDB, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(args) < 2 {
			log.Fatal("Usage: migrate steps <n>")
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		err = m.Steps(n)
	case "version":
		var status migration.Status
		status, err = m.Version()
		if err == nil {
			log.Info("Current migration version",
				zap.Uint("version", status.Version),
				zap.Bool("dirty", status.Dirty),
			)
		}
	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: migrate force <version>")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		err = m.Force(version)
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

// bootstrapAdmin grants ADMIN on a branch to a portal identity so the first
// administrator can provision everyone else over the API
func bootstrapAdmin(db *persistence.Database, args []string, log *zap.Logger) {
	fs := flag.NewFlagSet("bootstrap-admin", flag.ExitOnError)
	portalUserID := fs.String("portal-user-id", "", "Portal subject (JWT sub) of the administrator")
	email := fs.String("email", "", "Email address")
	displayName := fs.String("name", "", "Display name")
	branch := fs.String("branch", "", "Branch UUID the role applies to")
	_ = fs.Parse(args)

	branchID, err := uuid.Parse(*branch)
	if err != nil || *portalUserID == "" || *email == "" {
		log.Fatal("Usage: migrate bootstrap-admin -portal-user-id <sub> -email <email> -branch <uuid> [-name <name>]")
	}

	users := appidentity.NewUserService(
		persistence.NewGormUserRepository(db.DB),
		persistence.NewGormTransactionScope(db.DB).Identity(),
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := users.BootstrapAdmin(ctx, appidentity.BootstrapAdminInput{
		PortalUserID: *portalUserID,
		Email:        *email,
		DisplayName:  *displayName,
		BranchID:     branchID,
	})
	if err != nil {
		log.Fatal("Bootstrap admin failed", zap.Error(err))
	}
	log.Info("Administrator ready", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
}

func printUsage() {
	fmt.Println(`RMS Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  steps <n>             Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version after a failed run
  create <name> [desc]  Create the next numbered migration pair
  list                  List available migrations
  bootstrap-admin       Grant ADMIN on a branch to a portal identity
                        -portal-user-id <sub> -email <email> -branch <uuid> [-name <name>]

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Configuration comes from config.toml and RMS_* environment variables
(DATABASE_URL is honoured as well).`)
}
