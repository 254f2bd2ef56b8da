package main

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/config"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/infrastructure"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "docflow",
		Short:         "Document digitization file utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newLabelCommand(ctx))
	rootCmd.AddCommand(newRenameCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// withInfrastructure starts the configured systems for the duration of fn.
func (c *commandContext) withInfrastructure(
	cmd *cobra.Command,
	fn func(*config.Config, *infrastructure.Infrastructure) error,
) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	infra, err := infrastructure.New(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		if err := infra.Shutdown(cfg); err != nil {
			infra.Logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if err := infra.Start(); err != nil {
		return err
	}

	return fn(cfg, infra)
}
