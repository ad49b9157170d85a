// Command hounif solves higher-order unification problems described in YAML
// files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gitrdm/gokanunify/cmd/hounif/commands"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.Execute(ctx); err != nil {
		log.Error().Err(err).Msg("hounif failed")
		cancel()
		os.Exit(1)
	}
}
