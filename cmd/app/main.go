// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"codeberg.org/oliverandrich/securelink/internal/config"
	"codeberg.org/oliverandrich/securelink/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "securelink",
		Usage:  "Verify customer secure links",
		Flags:  config.Flags(),
		Action: server.Run,
		Commands: []*cli.Command{
			migrateCommand(),
			cleanupCommand(),
		},
	}
}
