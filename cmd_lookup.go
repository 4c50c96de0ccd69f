package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/farrelathalla/anvil-upgrades/item"
	"github.com/farrelathalla/anvil-upgrades/recipes"
)

var (
	lookupInput  string
	lookupOutput string
	lookupJSON   bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Print upgrade recipe groups, optionally focused on an item",
	Example: `  anvil-upgrades lookup
  anvil-upgrades lookup --input enderio:dark_steel_sword
  anvil-upgrades lookup --output 'enderio:dark_steel_sword{"empowered":1}' --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if lookupInput != "" && lookupOutput != "" {
			return errors.New("use either --input or --output, not both")
		}

		reg, err := loadRegistry(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		groups, err := runLookup(reg.Load(), lookupInput, lookupOutput)
		if err != nil {
			return err
		}
		if lookupJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(groups)
		}
		printGroups(cmd.OutOrStdout(), groups)
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupInput, "input", "", "show recipes that upgrade this item")
	lookupCmd.Flags().StringVar(&lookupOutput, "output", "", "show recipes that do not produce this item")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print JSON")
}

func runLookup(idx *recipes.Index, input, output string) ([]recipes.Group, error) {
	mode, text := recipes.ModeInput, input
	switch {
	case input != "":
	case output != "":
		mode, text = recipes.ModeOutput, output
	default:
		return idx.AllGroups(), nil
	}
	id, err := item.Parse(text)
	if err != nil {
		return nil, err
	}
	return idx.Lookup(recipes.Focus{Mode: mode, Item: id}), nil
}

func printGroups(w io.Writer, groups []recipes.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No matching upgrade recipes.")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", g.Key, len(g.Paths))
		for _, p := range g.Paths {
			fmt.Fprintf(w, "  %s + %s -> %s\n", p.Input, p.Upgrade, p.Output)
		}
	}
}
