package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/scanvault/internal/client/cli"
	"github.com/dmitrijs2005/scanvault/internal/client/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app := cli.NewApp(cfg)
	app.Run(ctx)

}
