package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mmynk/billcalc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	force, _ := cmd.Flags().GetBool("force")
	if config.Exists(path) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("  Wrote %s\n", path)
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	path := configPath()
	fmt.Printf("# Config file: %s\n", path)
	if config.Exists(path) {
		fmt.Println("# Status: loaded")
	} else {
		fmt.Println("# Status: using defaults (no config file)")
	}

	shown := cfg
	shown.Auth.JWTSecret = maskSecret(shown.Auth.JWTSecret)
	if shown.Database.URL != "" {
		shown.Database.URL = maskSecret(shown.Database.URL)
	}
	return toml.NewEncoder(os.Stdout).Encode(shown)
}

func maskSecret(s string) string {
	if len(s) > 16 {
		return s[:8] + "..." + s[len(s)-4:]
	}
	if len(s) > 4 {
		return s[:4] + "..."
	}
	return "****"
}
