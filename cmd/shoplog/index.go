package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
)

var (
	lookupItem     string
	lookupEnchants []string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the indexer's price index, or one entry of it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		var (
			out any
			err error
		)
		if lookupItem != "" {
			out, err = c.Lookup(ctx, lookupItem, lookupEnchants...)
		} else {
			out, err = c.FetchIndex(ctx)
		}
		if err != nil {
			return reportAPIError(cmd, err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	indexCmd.Flags().StringVar(&lookupItem, "item", "", "look up a single item")
	indexCmd.Flags().StringArrayVar(&lookupEnchants, "enchant", nil, "enchantment of the looked-up item, repeatable")
}
