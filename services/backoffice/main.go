package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/app"
)

const appNamespace = "BACKOFFICE"

//go:embed assets
var assetsFS embed.FS

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", app.AppName, app.AppVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	a, err := app.New(config, logger, assetsFS)
	if err != nil {
		log.Fatalf("cannot create %s: %v", app.AppName, err)
	}

	if err := a.Initialize(ctx); err != nil {
		log.Fatalf("cannot initialize %s: %v", app.AppName, err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", app.AppName, app.AppVersion, err)
	}
}
