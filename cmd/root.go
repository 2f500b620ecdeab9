package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand returns the root command with all subcommands attached
func NewRootCommand(fs afero.Fs, v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snapsquare",
		Short: "Upload, square up and serve images.",
		Long: `snapsquare accepts image uploads over HTTP, validates them and stores them in a
flat directory, either byte for byte ("store" profile) or center cropped, resized
and re-encoded as JPEG ("normalize" profile).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "file of KEY=VALUE pairs loaded into the environment")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable console logs")
	v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	v.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	rootCmd.AddCommand(NewServeCommand(fs, v))

	return rootCmd
}
