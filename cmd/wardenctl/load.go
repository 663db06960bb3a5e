package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var loadInputPath string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import policies from a tar archive into the local store",
	Args:  cobra.NoArgs,
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadInputPath, "input", "", "archive path to read")
	_ = loadCmd.MarkFlagRequired("input")
}

func runLoad(_ *cobra.Command, _ []string) error {
	s, err := openDefaultStore()
	if err != nil {
		return err
	}

	f, err := os.Open(loadInputPath)
	if err != nil {
		return fmt.Errorf("cannot open archive: %w", err)
	}
	defer f.Close()

	if err := s.LoadArchive(f); err != nil {
		return err
	}
	fmt.Println("Policies imported into the local store")
	return nil
}
