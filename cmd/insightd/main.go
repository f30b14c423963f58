// Command insightd serves the feedback and insight API.
//
//	insightd            # same as "insightd serve"
//	insightd serve --port 9090
//	insightd migrate
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("insightd failed")
		os.Exit(1)
	}
}
