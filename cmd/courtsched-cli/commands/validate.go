package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/use-agent/courtsched/validator"
)

var validateFile *string

func init() {
	validateFile = validateCmd.Flags().StringP("file", "f", "", "Batch to check (.xlsx or .json).")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate --file <cases.xlsx|cases.json>",
	Short: "Checks every case of a batch without opening a browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := readCases(*validateFile)
		if err != nil {
			return err
		}
		_, invalid := validator.Partition(cases)

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Competency", "Rol", "Year", "Court", "Book", "Result"})
		for i, c := range cases {
			result := "ok"
			if msg, bad := invalid[i]; bad {
				result = msg
			}
			t.AppendRow(table.Row{i + 1, c.Competency, c.Rol, c.Year, c.Court, c.Book, result})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", "invalid", len(invalid)})
		t.Render()

		if len(invalid) > 0 {
			return fmt.Errorf("%d of %d cases are invalid", len(invalid), len(cases))
		}
		return nil
	},
}
