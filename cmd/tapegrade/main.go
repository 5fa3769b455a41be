package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tapegrade",
		Short: "Compute quality ratings for live-music recordings on archive.org",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(collectCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(topCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	var (
		useFeed bool
		max     int
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch recording metadata and reviews into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(useFeed, max)
		},
	}

	cmd.Flags().BoolVar(&useFeed, "feed", false, "discover via the collection RSS feed instead of search")
	cmd.Flags().IntVar(&max, "max", 0, "max recordings to collect (default: from config)")
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		output string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compute ratings and write the dataset JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(output, pretty)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "output path (default: from config)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent the output JSON")
	return cmd
}

func topCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the current top-rated shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "max shows to list")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
