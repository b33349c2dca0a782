// Command retailctl runs the batch side of retailworks from the shell:
// migrations, calendar generation, commission runs, the nightly ETL and
// data-quality checks.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("retailctl failed")
		os.Exit(1)
	}
}
