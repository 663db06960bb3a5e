package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var saveOutputPath string

var saveCmd = &cobra.Command{
	Use:   "save [uri...]",
	Short: "Export stored policies to a tar archive",
	Long: `Export policies from the local store to a tar archive. With no arguments
every stored policy is exported; otherwise only the named URIs are.`,
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVarP(&saveOutputPath, "output", "o", "policies.tar", "archive path to write")
}

func runSave(_ *cobra.Command, args []string) error {
	s, err := openDefaultStore()
	if err != nil {
		return err
	}

	f, err := os.Create(saveOutputPath)
	if err != nil {
		return fmt.Errorf("cannot create archive: %w", err)
	}
	defer f.Close()

	if err := s.SaveArchive(f, args); err != nil {
		return err
	}
	fmt.Printf("Policies saved to %s\n", saveOutputPath)
	return nil
}
