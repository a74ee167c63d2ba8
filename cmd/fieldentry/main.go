package main

import (
	"context"
	"log"
	"os"

	"github.com/example/fieldentry/internal/buildinfo"
	"github.com/example/fieldentry/internal/client/cli"
	"github.com/example/fieldentry/internal/client/config"
	"github.com/example/fieldentry/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg, logging.NewDefault())

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
