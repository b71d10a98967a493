// Command shoplog converts Minecraft client logs into shop listings and
// talks to a running indexer.
//
//	shoplog convert latest.log.gz shops      # writes shops.json and shops.csv
//	shoplog upload latest.log --server http://localhost:8080 --uploader steve
//	shoplog watch ~/.minecraft/logs/latest.log shops
//	shoplog index --server http://localhost:8080 --item "Diamond Sword"
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	marker  string
)

var rootCmd = &cobra.Command{
	Use:           "shoplog",
	Short:         "Parse shop listings out of Minecraft client logs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&marker, "marker", "", "chat marker preceding shop lines (default: the client's [CHAT] prefix)")

	rootCmd.AddCommand(convertCmd, uploadCmd, watchCmd, indexCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
