package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "casewise-api",
	Short: "CaseWise API - case management for law firms",
	Long:  `REST API for attorneys and assistants: clients, cases, tasks, documents, dashboards and audit export.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
