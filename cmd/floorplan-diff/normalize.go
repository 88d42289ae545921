// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/floorplan-diff/internal/engine"
	"github.com/pdiddy/floorplan-diff/internal/entityio"
	"github.com/pdiddy/floorplan-diff/internal/normalize"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize ORIGINAL REVISED",
	Short: "Compute the transform aligning the revised drawing to the original",
	Long: `Normalize detects the reference grid of both drawings and fits the
rotation, uniform scale, and translation mapping revised coordinates into the
original's frame. Without a usable grid it falls back to bounding-box or
identity alignment, as configured.

With --apply, the aligned revised entities are written to a file.`,
	Args: cobra.ExactArgs(2),
	RunE: runNormalize,
}

type normalizeOutput struct {
	Transform     types.NormalizationTransform `json:"transform" yaml:"transform"`
	Normalization types.Normalization          `json:"normalization" yaml:"normalization"`
	Diagnostics   []types.Diagnostic           `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(flagString(cmd, "format"))
	if err != nil {
		return err
	}
	original, revised, err := readPair(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	cfg := appConfig.Normalizer
	if cmd.Flags().Changed("fallback") {
		cfg.Fallback = types.FallbackMode(flagString(cmd, "fallback"))
		if cfg.Fallback != types.FallbackBBox && cfg.Fallback != types.FallbackIdentity {
			return fmt.Errorf("unsupported fallback %q: use bbox or identity", cfg.Fallback)
		}
	}

	t, rep := engine.Normalize(original, revised, cfg)

	if out := flagString(cmd, "apply"); out != "" {
		if err := writeAligned(out, t, revised); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "aligned: %s\n", out)
	}

	if format != outputTable {
		return writeStructured(os.Stdout, normalizeOutput{
			Transform:     t,
			Normalization: rep.Normalization,
			Diagnostics:   rep.Diagnostics,
		}, format)
	}
	fmt.Fprintf(os.Stdout, "method: %s\n", rep.Normalization.Method)
	writeTransform(os.Stdout, t)
	if rep.Normalization.Method == types.MethodGridFit {
		fmt.Fprintf(os.Stdout, "  grid: %d nodes (original %d axes, revised %d axes), residual %.3g\n",
			rep.Normalization.GridNodes, rep.OriginalAxes, rep.RevisedAxes, rep.Normalization.Residual)
	}
	if rep.Normalization.Reason != "" {
		fmt.Fprintf(os.Stdout, "  reason: %s\n", rep.Normalization.Reason)
	}
	writeDiagnostics(os.Stdout, rep.Diagnostics)
	return nil
}

// writeAligned writes the valid revised entities mapped into the original
// frame, in the format implied by path.
func writeAligned(path string, t types.NormalizationTransform, revised []types.GeometryEntity) error {
	f, err := entityio.FormatFromPath(path)
	if err != nil {
		return err
	}
	valid, _ := engine.Prepare(revised, types.SourceRevised)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := entityio.Write(file, normalize.Apply(t, valid), f); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

func init() {
	normalizeCmd.Flags().String("fallback", "", "fallback when no grid fit is found: bbox or identity (default from config)")
	normalizeCmd.Flags().String("apply", "", "write the aligned revised entities to this file (.json or .yaml)")
	normalizeCmd.Flags().String("input-format", "", "entity file format: json or yaml (default from extension)")
	normalizeCmd.Flags().String("format", "table", "output format: json, yaml, or table")

	rootCmd.AddCommand(normalizeCmd)
}
