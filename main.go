package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "patients",
		Short:         "Patient records service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), tokenCmd())
	if err := root.Execute(); err != nil {
		os.Stderr.WriteString("patients: " + err.Error() + "\n")
		os.Exit(1)
	}
}
