package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/channelauth/internal/server"
	"github.com/dmitrijs2005/channelauth/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
