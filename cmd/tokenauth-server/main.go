// Command tokenauth-server serves the tokenauth HTTP API.
//
// Configuration comes from TOKENAUTH_* environment variables; a few
// common settings can be overridden with flags (see -h).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/tokenauth/internal/app"
)

func main() {
	log.SetPrefix("[TOKENAUTH] ")

	cfg, err := app.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
