package main

import (
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/exploitsearch/internal/config"
)

type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "exploitsearch",
		Short: "Search a local exploit catalog and request AI security analyses",
		Long: `exploitsearch loads an exploit catalog (CSV) once, answers ranked
free-text queries over it and asks a text generation service for a
security analysis of a selected record.

Configuration is read from --config, $CONFIG_PATH or ./config.yaml.
The API key is taken from the environment variable named by
ai.apiKeyEnv (default API_KEY); a .env file is honoured.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.ResolvePath(c.configPath))
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config.yaml")

	root.AddCommand(
		newServeCmd(c),
		newSearchCmd(c),
		newShowCmd(c),
		newAnalyzeCmd(c),
	)
	return root
}
