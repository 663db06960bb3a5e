package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wardenlab/wardenctl/domain/entities"
	"github.com/wardenlab/wardenctl/policy"
	"github.com/wardenlab/wardenctl/scaffold"
)

var (
	annotateMetadataPath string
	annotateOutputPath   string
	annotatePrintSchema  bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <policy.wasm>",
	Short: "Embed metadata into a policy module",
	Long: `Validate a metadata document and embed it into the policy's wasm binary as
a custom section. An existing metadata section is replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVarP(&annotateMetadataPath, "metadata-path", "m", "", "path of the metadata YAML document")
	annotateCmd.Flags().StringVarP(&annotateOutputPath, "output-path", "o", "", "where to write the annotated module")
	annotateCmd.Flags().BoolVar(&annotatePrintSchema, "print-schema", false, "print the metadata JSON schema and exit")
}

func runAnnotate(_ *cobra.Command, args []string) error {
	if annotatePrintSchema {
		schema, err := scaffold.MetadataSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	}

	if len(args) != 1 || annotateMetadataPath == "" || annotateOutputPath == "" {
		return fmt.Errorf("annotate requires a policy file, --metadata-path and --output-path")
	}

	metaData, err := os.ReadFile(annotateMetadataPath)
	if err != nil {
		return fmt.Errorf("cannot read metadata: %w", err)
	}
	var meta entities.Metadata
	if err := yaml.Unmarshal(metaData, &meta); err != nil {
		return fmt.Errorf("cannot parse metadata: %w", err)
	}

	wasmBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read policy module: %w", err)
	}

	annotated, err := policy.Annotate(wasmBytes, &meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(annotateOutputPath, annotated, 0o644); err != nil {
		return fmt.Errorf("cannot write annotated module: %w", err)
	}
	return nil
}
