package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prepstack/examtutor/internal/cli"
	"github.com/prepstack/examtutor/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "examtutord",
		Short: "Exam tutor daemon and CLI",
		Long:  "Exam tutor daemon for running the answer API server and managing the knowledge corpus and exam bank",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.ImportExamsCmd())
	rootCmd.AddCommand(admin.StatsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
