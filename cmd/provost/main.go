package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "provost",
	Short: "Provost — multi-tenant research program platform",
	Long:  "Provost is the backend for a multi-tenant research program platform: tenant provisioning, credential verification, tenant-scoped sessions, and role-based access control.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/provost.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
