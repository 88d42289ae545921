// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/floorplan-diff/internal/engine"
	"github.com/pdiddy/floorplan-diff/internal/entityio"
	"github.com/pdiddy/floorplan-diff/internal/store"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare ORIGINAL REVISED",
	Short: "Compare two entity files and report the differences",
	Long: `Compare aligns the revised drawing to the original, pairs entities per
layer and type, and reports every entity as added, removed, or modified
(unchanged entities are counted and listed with --include-unchanged).

Tolerances come from a named profile (--profile, default from config);
individual thresholds can be overridden with flags. Use --save to keep the
result in the diff store for later queries.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(flagString(cmd, "format"))
	if err != nil {
		return err
	}
	profile, err := profileFromFlags(cmd)
	if err != nil {
		return err
	}
	original, revised, err := readPair(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	opts := engine.OptionsFromConfig(appConfig, log)
	opts.IncludeUnchanged, _ = cmd.Flags().GetBool("include-unchanged")
	if cmd.Flags().Changed("workers") {
		opts.Matcher.Workers, _ = cmd.Flags().GetInt("workers")
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := engine.Match(ctx, original, revised, profile, opts)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := store.Open(appConfig.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		meta, err := st.Save(ctx, res, store.SaveOptions{
			Label:    flagString(cmd, "label"),
			Original: args[0],
			Revised:  args[1],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved: %s\n", meta.ID)
	}

	w, closeOut, err := openOutput(flagString(cmd, "output"))
	if err != nil {
		return err
	}
	if format == outputTable {
		writeResultTable(w, res)
	} else if err := writeStructured(w, res, format); err != nil {
		closeOut()
		return fmt.Errorf("writing result: %w", err)
	}
	return closeOut()
}

// profileFromFlags resolves --profile and applies threshold overrides.
func profileFromFlags(cmd *cobra.Command) (types.ToleranceProfile, error) {
	p, err := appConfig.ResolveProfile(flagString(cmd, "profile"))
	if err != nil {
		return types.ToleranceProfile{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("position-tolerance") {
		p.PositionTolerance, _ = flags.GetFloat64("position-tolerance")
	}
	if flags.Changed("angle-tolerance") {
		p.AngleTolerance, _ = flags.GetFloat64("angle-tolerance")
	}
	if flags.Changed("search-radius") {
		p.SearchRadius, _ = flags.GetFloat64("search-radius")
	}
	if flags.Changed("strict") {
		p.AttributeStrict, _ = flags.GetBool("strict")
	}
	return p, nil
}

// readPair loads the original and revised entity files.
func readPair(cmd *cobra.Command, originalPath, revisedPath string) (original, revised []types.GeometryEntity, err error) {
	var f entityio.Format
	if s := flagString(cmd, "input-format"); s != "" {
		if f, err = entityio.ParseFormat(s); err != nil {
			return nil, nil, err
		}
	}
	if original, err = entityio.ReadFile(originalPath, f, types.SourceOriginal); err != nil {
		return nil, nil, err
	}
	if revised, err = entityio.ReadFile(revisedPath, f, types.SourceRevised); err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"original": len(original),
		"revised":  len(revised),
	}).Debug("entity files read")
	return original, revised, nil
}

func flagString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}

func init() {
	compareCmd.Flags().String("profile", "", "tolerance profile name (default from config)")
	compareCmd.Flags().Float64("position-tolerance", 0, "override position tolerance (drawing units)")
	compareCmd.Flags().Float64("angle-tolerance", 0, "override angle tolerance (radians)")
	compareCmd.Flags().Float64("search-radius", 0, "override absolute search radius (drawing units)")
	compareCmd.Flags().Bool("strict", false, "compare colors and penalize attribute differences")
	compareCmd.Flags().Bool("include-unchanged", false, "list unchanged entities as records")
	compareCmd.Flags().Int("workers", 0, "buckets matched concurrently (0 = number of CPUs)")
	compareCmd.Flags().String("input-format", "", "entity file format: json or yaml (default from extension)")
	compareCmd.Flags().String("format", "table", "output format: json, yaml, or table")
	compareCmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")
	compareCmd.Flags().Bool("save", false, "store the result in the diff store")
	compareCmd.Flags().String("label", "", "label for the stored result")

	rootCmd.AddCommand(compareCmd)
}
