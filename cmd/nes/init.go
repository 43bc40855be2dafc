package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navayuwa/nes-core/internal/infrastructure/config"
	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/file"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new record store",
		Long:  "Creates a .nes directory with default configuration and an empty record store.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("nes already initialized in %s", cwd)
	}

	if err := config.WriteDefault(cwd); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := file.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	defer store.Close()

	fmt.Printf("Created record store: %s\n", cfg.Store.Path)
	fmt.Println("NES initialized successfully!")
	return nil
}
