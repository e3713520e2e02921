package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/cli"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage/boltdb"
	clientsync "github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/sync"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	dbPath := flag.String("db", "canvas-client.db", "Path to local BoltDB database")
	storePath := flag.String("store", "canvas-store.db", "Path to SQLite backing store")
	canvasID := flag.String("canvas", "default", "Canvas identifier")
	actorID := flag.String("actor", "", "Actor identifier (generated if empty)")
	actorName := flag.String("name", "anonymous", "Actor display name")
	actorColor := flag.String("color", "#4f46e5", "Actor color")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	// Создаем контекст
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Открываем BoltDB storage (snapshot + очередь операций)
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open local database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close local database", "error", err)
		}
	}()

	// Открываем backing row store
	canvasStore, err := sqlite.New(ctx, *storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open backing store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := canvasStore.Close(); err != nil {
			logger.Error("failed to close backing store", "error", err)
		}
	}()

	actor := models.Actor{
		ID:    *actorID,
		Name:  *actorName,
		Color: *actorColor,
	}
	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}

	// Собираем per-canvas engine; передача идет прямо в backing store
	engine := clientsync.NewEngine(clientsync.Config{
		CanvasID: *canvasID,
		Actor:    actor,
	}, boltStorage, boltStorage, cli.StoreTransmitter(canvasStore, *canvasID), logger)
	defer func() {
		if err := engine.Close(ctx); err != nil {
			logger.Error("failed to close engine", "error", err)
		}
	}()

	c := cli.New(engine, canvasStore, *canvasID)

	// Выполняем команду
	switch command {
	case "demo":
		if err := c.RunDemo(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "status":
		if err := c.RunStatus(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "replay":
		if err := c.RunReplay(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "flush":
		if err := c.RunFlush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.PrintUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Collaborative Canvas Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
