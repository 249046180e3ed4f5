package main

import (
	"context"
	"log"

	"github.com/vitalsync/authkit/internal/authcli"
	"github.com/vitalsync/authkit/internal/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	app, err := authcli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
