package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"doc_detector/internal/aidetect"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List weight presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range aidetect.PresetNames() {
				cfg, err := aidetect.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (threshold %.2f, %d rule(s))\n", name, cfg.Threshold, len(cfg.Rules))
				for _, f := range aidetect.AllFeatures {
					fmt.Fprintf(out, "  %-22s %.2f\n", f, cfg.Weights[f])
				}
			}
			return nil
		},
	}
}
