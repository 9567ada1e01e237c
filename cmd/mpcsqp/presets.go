package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/mpcsqp/internal/config"
	"github.com/san-kum/mpcsqp/internal/models"
)

func listPresets(cmd *cobra.Command, args []string) error {
	names := models.Names()
	if len(args) == 1 {
		names = args
	}
	for _, model := range names {
		presets := config.ListPresets(model)
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", model)
			continue
		}
		fmt.Println(field(model, strings.Join(presets, ", ")))
	}
	return nil
}

func writeTask(cmd *cobra.Command, args []string) error {
	cfg, err := loadTask(args[0])
	if err != nil {
		return err
	}
	if err := config.Save(outFile, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s task to %s\n", cfg.Model, outFile)
	return nil
}
