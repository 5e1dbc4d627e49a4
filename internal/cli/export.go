package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mizan-app/mizan/internal/daemon"
)

func init() {
	exportCmd.Flags().Int64Var(&exportUserID, "user", 0, "User id to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}

var (
	exportUserID int64
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's check-in history as CSV",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(rootCmd.Version)
	if err != nil {
		return err
	}
	defer d.Close()

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := d.Checkins.ExportCSV(out, exportUserID); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", exportOut)
	}
	return nil
}
