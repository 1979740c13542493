package main

import (
	"fmt"

	"github.com/example/algorecall/internal/excel"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import problems from a spreadsheet (columns: Topic, Name, Link)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := excel.DefaultImportConfig()
			config.SheetName = sheet
			importer := excel.NewImporter(a.tracker).WithConfig(config)

			result, err := importer.ImportFile(cmd.Context(), a.userID, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📥 Processed %d rows: %d added, %d already tracked, %d errors\n",
				result.TotalProcessed, result.Created, result.Skipped, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  ", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to import (default: first sheet)")
	return cmd
}
