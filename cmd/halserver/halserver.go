package main

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/hypermedia-labs/halstore/internal/pkg/infrastructure/router"
	api "github.com/hypermedia-labs/halstore/internal/pkg/presentation/api/hal"
)

const appName string = "halserver"

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	var policies io.Reader

	policiesPath := env.GetVariableOrDefault(ctx, "POLICIES_FILE", "")
	if policiesPath != "" {
		f, err := os.Open(policiesPath)
		if err != nil {
			log.Error("failed to open authz policies", "err", err.Error())
			os.Exit(1)
		}
		defer f.Close()

		policies = f
	}

	r := router.New(appName, log)

	err := api.RegisterHandlers(ctx, r, policies, DemoFixtures())
	if err != nil {
		log.Error("failed to register handlers", "err", err.Error())
		os.Exit(1)
	}

	port := env.GetVariableOrDefault(ctx, "SERVICE_PORT", "8080")
	log.Info("starting to listen for connections", "port", port)

	err = http.ListenAndServe(":"+port, r)
	if err != nil {
		log.Error("failed to listen for connections", "err", err.Error())
		os.Exit(1)
	}
}
