package main

import (
	"context"
	"flag"
	"log"

	"github.com/petrijr/expressflow/internal/app"
	"github.com/petrijr/expressflow/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	application, err := app.New(cfg, nil)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	ctx, cancel := app.ContextWithShutdownSignal(context.Background())
	defer cancel()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
