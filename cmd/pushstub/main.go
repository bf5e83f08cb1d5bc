package main

import (
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/client"
	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/handler"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/server"
	"github.com/MKhiriev/go-push-sync/internal/stub"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("push-stub")
	structured, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	// the stub binary always serves, with the default address if none is set
	structured.Stub.Enabled = true
	cfg := config.NewEngineConfig(structured)
	log.Debug().Str("address", cfg.Stub.Address).Msg("received configs")

	var opts []stub.Opt
	if cfg.Stub.JWTKey != "" {
		opts = append(opts, stub.WithJWTKey(cfg.Stub.JWTKey, client.StubJWTIssuer))
	}

	handlers, err := handler.NewHandlers(stub.New(log, opts...), cfg.Stub, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Stub, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
