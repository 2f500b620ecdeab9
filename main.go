package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/julianlk522/snapsquare/cmd"
)

func main() {
	root := cmd.NewRootCommand(afero.NewOsFs(), viper.GetViper())
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("snapsquare exited")
		os.Exit(1)
	}
}
