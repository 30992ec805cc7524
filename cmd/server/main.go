// @title        TurCRM API
// @version      1.0
// @description  CRM туроператора: заявки, туристы, туры, формы, документы.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"turcrm/internal/app"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, *configPath); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
