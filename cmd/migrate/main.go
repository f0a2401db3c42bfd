package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/shelfwatch-backend/pkg/config"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|redo|status|version|create|validate")
	dir := flag.String("dir", "", "migrations directory; empty uses the embedded set ("+migrate.DefaultDir+" for create)")
	name := flag.String("name", "", "migration name for -cmd=create")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch files, so they run without config.
	switch *cmd {
	case "create":
		out := *dir
		if out == "" {
			out = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(out, *name, time.Now())
		exitOn("create migration", err)
		fmt.Println("created", path)
		return
	case "validate":
		exitOn("validate migrations", migrate.Validate(migrate.Source(*dir)))
		fmt.Println("migrations ok")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	exitOn("load config", err)
	if cfg.DB.IsSQLite() {
		exitOn("migrate", fmt.Errorf("goose migrations target postgres; sqlite schemas are synced by SHELFWATCH_AUTO_MIGRATE"))
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn("connect database", err)
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	exitOn("connect database", err)

	fsys := migrate.Source(*dir)
	var applied []migrate.Applied

	switch *cmd {
	case "up", "down", "redo":
		applied, err = migrate.Run(ctx, sqlDB, fsys, *cmd)
	case "version":
		v, parseErr := strconv.ParseInt(*target, 10, 64)
		if parseErr != nil {
			exitOn("parse -version", parseErr)
		}
		applied, err = migrate.MigrateTo(ctx, sqlDB, fsys, v)
	case "status":
		rows, statusErr := migrate.Status(ctx, sqlDB, fsys)
		exitOn("status", statusErr)
		printStatus(rows)
		return
	default:
		exitOn("migrate", fmt.Errorf("unknown -cmd %q", *cmd))
	}

	for _, a := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     a.Version,
			"name":        a.Name,
			"direction":   a.Direction,
			"duration_ms": a.Duration.Milliseconds(),
		}), "migration.applied")
	}
	exitOn(*cmd, err)
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "migrate.done")
}

func printStatus(rows []migrate.StatusRow) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, r := range rows {
		state, at := "pending", "-"
		if r.Applied {
			state, at = "applied", r.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Version, state, at, r.Name)
	}
	_ = tw.Flush()
}

func exitOn(step string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "migrate: %s: %v\n", step, err)
	os.Exit(1)
}
