package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/client"
	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo(models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))

	log := logger.NewLogger("push-sync")
	cfg, err := config.GetEngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx := context.Background()
	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init push sync app error")
	}

	if err = app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("push sync run error")
	}
}

func printBuildInfo(info models.AppBuildInfo) {
	fmt.Printf("Build version: %s\n", orNA(info.BuildVersion()))
	fmt.Printf("Build date: %s\n", orNA(info.BuildDate()))
	fmt.Printf("Build commit: %s\n", orNA(info.BuildCommit()))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
