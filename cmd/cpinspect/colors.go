package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/cpview/pkg/engine"
)

func newColorsCmd(o *options) *cobra.Command {
	var (
		asJSON  bool
		profile string
	)
	cmd := &cobra.Command{
		Use:   "colors [file]",
		Short: "Show the gradient colors each segment would get",
		Long:  "Decode a model, apply node potentials from the config (or a profile script) and list each segment's color and potential range.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadModel(cmd, o, args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			if profile != "" {
				src, err := os.ReadFile(profile)
				if err != nil {
					return err
				}
				_, evalErrs, err := v.EvaluateProfile(string(src))
				if err != nil {
					return err
				}
				if len(evalErrs) > 0 {
					return evalErrs[0]
				}
			}

			items := v.Segments()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCOLOR\tRANGE\tVISIBLE")
			for _, it := range items {
				color, rng := it.Color, it.Range
				if color == "" {
					color, rng = "-", "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", it.Name, color, rng, it.Visible)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Profile script supplying node values")
	return cmd
}

func newProfileCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [script]",
		Short: "Evaluate a profile script and print its node values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			eng := engine.NewEngineWithTimeout(cfg.ProfileTimeout())
			values, evalErrs, err := eng.Evaluate(string(src))
			if err != nil {
				return err
			}
			for _, e := range evalErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[0], e.Error())
			}
			if len(evalErrs) > 0 {
				return fmt.Errorf("%s: %d error(s)", args[0], len(evalErrs))
			}
			for i, val := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%g\n", i, val)
			}
			return nil
		},
	}
}
