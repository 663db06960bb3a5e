package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wardenlab/wardenctl/policy"
	"github.com/wardenlab/wardenctl/scaffold"
)

var (
	scaffoldSettingsPath string
	scaffoldSettingsJSON string
	scaffoldPrintSchema  bool
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Generate documents from an annotated policy",
}

var scaffoldManifestCmd = &cobra.Command{
	Use:   "manifest <policy>",
	Short: "Generate a ClusterAdmissionPolicy manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wasmBytes, err := loadPolicyBytes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		meta, err := policy.ReadMetadata(wasmBytes)
		if err != nil {
			return err
		}

		settings, err := resolveSettings(scaffoldSettingsPath, scaffoldSettingsJSON)
		if err != nil {
			return err
		}
		var settingsMap map[string]any
		if len(settings) > 0 {
			if err := json.Unmarshal(settings, &settingsMap); err != nil {
				return fmt.Errorf("cannot parse settings: %w", err)
			}
		}

		manifest, err := scaffold.Manifest(args[0], meta, settingsMap)
		if err != nil {
			return err
		}
		fmt.Print(string(manifest))
		return nil
	},
}

var scaffoldRequestCmd = &cobra.Command{
	Use:   "admission-request [policy]",
	Short: "Generate a sample admission request for a policy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scaffoldPrintSchema {
			schema, err := scaffold.RequestSchema()
			if err != nil {
				return err
			}
			fmt.Println(string(schema))
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("admission-request requires a policy reference")
		}

		wasmBytes, err := loadPolicyBytes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		meta, err := policy.ReadMetadata(wasmBytes)
		if err != nil {
			return err
		}

		fixture, err := scaffold.AdmissionRequestFixture(meta)
		if err != nil {
			return err
		}
		fmt.Println(string(fixture))
		return nil
	},
}

var scaffoldVerificationCmd = &cobra.Command{
	Use:   "verification-config",
	Short: "Generate a signature verification configuration skeleton",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		config, err := scaffold.VerificationConfig()
		if err != nil {
			return err
		}
		fmt.Print(string(config))
		return nil
	},
}

func init() {
	scaffoldManifestCmd.Flags().StringVar(&scaffoldSettingsPath, "settings-path", "", "path of the policy settings file")
	scaffoldManifestCmd.Flags().StringVar(&scaffoldSettingsJSON, "settings-json", "", "policy settings as an inline JSON document")
	scaffoldRequestCmd.Flags().BoolVar(&scaffoldPrintSchema, "print-schema", false, "print the admission request JSON schema and exit")

	scaffoldCmd.AddCommand(scaffoldManifestCmd, scaffoldRequestCmd, scaffoldVerificationCmd)
}
