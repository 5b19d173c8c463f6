package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danthegoodman1/dfgrid/session"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/spf13/cobra"
)

var (
	pageNum  int
	pageSize int
	varName  string
)

var pageCmd = &cobra.Command{
	Use:   "page <file>",
	Short: "Print the display payload for a JSON array or NDJSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

func init() {
	pageCmd.Flags().IntVar(&pageNum, "page", 0, "zero-based page to print, clamped to the last page")
	pageCmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page, 0 for the default")
	pageCmd.Flags().StringVar(&varName, "name", "df", "variable name to display the table under")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("error opening %s: %w", args[0], err)
	}
	defer f.Close()

	records, err := table.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("error in ReadRecords: %w", err)
	}
	t, err := table.FromRecords(records)
	if err != nil {
		return fmt.Errorf("error in FromRecords: %w", err)
	}

	sess := session.NewManager().Create()
	display := sess.Load(varName, t, pageNum, pageSize)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(display)
}
