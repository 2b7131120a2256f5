package main

import (
	"github.com/jwtly10/litpost"
	"github.com/jwtly10/litpost/internal/config"
	"github.com/spf13/cobra"
)

const configFileName = config.FileName

// loadConfig reads the config file named by --config and applies the flags
// the user set on cmd on top of it. A directory argument replaces the
// configured posts directory.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if len(args) > 0 {
		cfg.Posts = args[0]
	}

	overrideBool(cmd, "no-exec", &cfg.NoExec)
	overrideBool(cmd, "drafts", &cfg.Drafts)
	overrideBool(cmd, "recursive", &cfg.Recursive)
	overrideBool(cmd, "no-backup", &cfg.NoBackup)
	overrideString(cmd, "out-dir", &cfg.Output)
	overrideString(cmd, "mode", &cfg.Mode)
	overrideString(cmd, "language", &cfg.Language)
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

// newRenderer creates the renderer for cfg's kernel and render options.
func newRenderer(cfg config.Config) (*litpost.Renderer, error) {
	k, err := cfg.Kernel()
	if err != nil {
		return nil, err
	}
	return litpost.NewRenderer(k, cfg.RenderOptions()), nil
}
