package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relnote/logvec/internal/config"
	"github.com/relnote/logvec/internal/mcp"
	"github.com/relnote/logvec/internal/source"
	"github.com/relnote/logvec/internal/vecstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("logvec MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", vecstore.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", vecstore.SQLiteDriverName)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("logvec MCP Server v%s starting...", version)

	configPath := os.Getenv("LOGVEC_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var src source.Source
	if cfg.Source.DSN != "" {
		pg, err := source.NewPostgresSource(ctx, cfg.Source.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to changelog source: %v", err)
		}
		defer func() { _ = pg.Close(context.Background()) }()
		src = pg
	}

	server, err := mcp.NewServer(cfg, src)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "logvec.yaml"
	}
	return home + "/.logvec/config.yaml"
}
