package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stockmon",
	Short: "stockmon - A-share portfolio monitor",
	Long: `stockmon tracks a portfolio of Chinese A-share positions, fetching
live quotes from Sina and Eastmoney and computing per-position profit
and portfolio summaries. It runs as a one-shot fetch or as a daemon
speaking a line-delimited JSON protocol over stdio.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
