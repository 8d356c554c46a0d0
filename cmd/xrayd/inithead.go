package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"xrayd/internal/bootstrap"
)

func newInitHeadCmd(fv *flagValues) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-head",
		Short: "Write a seeded, untrained classifier head next to the models",
		Long: "init-head sizes a random head from text_features.safetensors and saves it as\n" +
			"head.safetensors, so repeated runs serve identical (if meaningless) predictions\n" +
			"until trained weights replace it.",
		Example: "  xrayd init-head --models-dir ./models --head-seed 42",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, fv)
			if err != nil {
				return err
			}
			seed := cfg.HeadSeed
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			path, err := bootstrap.InitHead(cfg, seed, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (seed %d)\n", path, seed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing head weights")
	return cmd
}
