package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "memeverse",
		Short:         "Browse, like and upload memes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(newHomeCmd(&configPath))
	rootCmd.AddCommand(newExploreCmd(&configPath))
	rootCmd.AddCommand(newMemeCmd(&configPath))
	rootCmd.AddCommand(newUploadCmd(&configPath))
	rootCmd.AddCommand(newProfileCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
