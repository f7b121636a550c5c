package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newInspectCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Report the segments of an STL or OBJ file",
		Long:  "Decode a model and print its segments with triangle counts, axis ranges, node indices and bounds.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadModel(cmd, o, args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			report := v.Inspect()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return report.WriteTable(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newJacketCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "jacket",
		Short: "Build the default jacket model and report it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := o.newViewer(cmd)
			if err != nil {
				return err
			}
			defer v.Close()

			if err := v.LoadDefault(cmd.Context()); err != nil {
				return err
			}
			return v.Inspect().WriteTable(cmd.OutOrStdout())
		},
	}
}
