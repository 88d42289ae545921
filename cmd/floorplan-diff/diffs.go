// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/floorplan-diff/internal/store"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

var diffsCmd = &cobra.Command{
	Use:   "diffs",
	Short: "Query stored comparison results",
	Long: `Diffs reads the SQLite diff store filled by "compare --save" and the
HTTP API. Use subcommands to list results, show one, query its records,
export it, or delete it.`,
}

// --- list subcommand ---

var diffsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDiffsList,
}

func runDiffsList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	metas, err := st.List(context.Background(), store.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if metas == nil {
			metas = []store.Meta{}
		}
		return writeStructured(os.Stdout, metas, outputJSON)
	}

	if len(metas) == 0 {
		fmt.Println("No stored results.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-24s  %-10s  %s\n",
		"ID", "Created", "Label", "Profile", "Added/Removed/Modified")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, m := range metas {
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-24s  %-10s  %d/%d/%d\n",
			m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), truncate(m.Label, 24), truncate(m.Profile, 10),
			m.Summary.Added, m.Summary.Removed, m.Summary.Modified)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(metas))
	return nil
}

// --- show subcommand ---

var diffsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a stored result",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiffsShow,
}

func runDiffsShow(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(flagString(cmd, "format"))
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := st.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if format != outputTable {
		return writeStructured(os.Stdout, d, format)
	}
	fmt.Fprintf(os.Stdout, "id: %s\ncreated: %s\n", d.ID, d.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if d.Label != "" {
		fmt.Fprintf(os.Stdout, "label: %s\n", d.Label)
	}
	if d.Original != "" || d.Revised != "" {
		fmt.Fprintf(os.Stdout, "compared: %s -> %s\n", d.Original, d.Revised)
	}
	writeResultTable(os.Stdout, &d.Result)
	return nil
}

// --- records subcommand ---

var diffsRecordsCmd = &cobra.Command{
	Use:   "records ID",
	Short: "Query the records of a stored result",
	Long: `Records lists the change records of one stored result, optionally
filtered by change type, entity type, layer, or entity id.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiffsRecords,
}

func runDiffsRecords(cmd *cobra.Command, args []string) error {
	q, err := recordQueryFromFlags(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.Lookup(ctx, args[0]); err != nil {
		return err
	}
	recs, err := st.Records(ctx, args[0], q)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeStructured(os.Stdout, recs, outputJSON)
	}
	writeResultTable(os.Stdout, &types.DiffResult{Records: recs})
	return nil
}

func recordQueryFromFlags(cmd *cobra.Command) (store.RecordQuery, error) {
	q := store.RecordQuery{
		ChangeType: types.ChangeType(flagString(cmd, "change")),
		Layer:      flagString(cmd, "layer"),
		EntityID:   flagString(cmd, "entity"),
	}
	q.Limit, _ = cmd.Flags().GetInt("limit")
	q.Offset, _ = cmd.Flags().GetInt("offset")
	if q.ChangeType != "" && !q.ChangeType.Valid() {
		return q, fmt.Errorf("unknown change type %q: use added, removed, modified, or unchanged", q.ChangeType)
	}
	if s := flagString(cmd, "type"); s != "" {
		t, ok := types.ParseEntityType(s)
		if !ok {
			return q, fmt.Errorf("unknown entity type %q", s)
		}
		q.EntityType = t
	}
	return q, nil
}

// --- export subcommand ---

var diffsExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a stored result to YAML or JSON",
	Long: `Export writes a stored result, records included, to
<store dir>/exports/<id>.yaml or <id>.json.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiffsExport,
}

func runDiffsExport(cmd *cobra.Command, args []string) error {
	format := flagString(cmd, "format")
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = st.ExportYAML(context.Background(), args[0])
	case "json":
		path, err = st.ExportJSON(context.Background(), args[0])
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- delete subcommand ---

var diffsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted: %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := appConfig.Store
	if dir := flagString(cmd, "store-dir"); dir != "" {
		cfg.Dir = dir
	}
	return store.Open(cfg)
}

func init() {
	diffsCmd.PersistentFlags().String("store-dir", "", "diff store directory (default from config)")

	diffsListCmd.Flags().Int("limit", 0, "maximum results (default from config)")
	diffsListCmd.Flags().Int("offset", 0, "skip this many results")
	diffsListCmd.Flags().Bool("json", false, "output as JSON")

	diffsShowCmd.Flags().String("format", "table", "output format: json, yaml, or table")

	diffsRecordsCmd.Flags().String("change", "", "filter by change type")
	diffsRecordsCmd.Flags().String("type", "", "filter by entity type")
	diffsRecordsCmd.Flags().String("layer", "", "filter by layer")
	diffsRecordsCmd.Flags().String("entity", "", "filter by entity id")
	diffsRecordsCmd.Flags().Int("limit", 0, "maximum records (default from config)")
	diffsRecordsCmd.Flags().Int("offset", 0, "skip this many records")
	diffsRecordsCmd.Flags().Bool("json", false, "output as JSON")

	diffsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	diffsCmd.AddCommand(diffsListCmd, diffsShowCmd, diffsRecordsCmd, diffsExportCmd, diffsDeleteCmd)
	rootCmd.AddCommand(diffsCmd)
}
