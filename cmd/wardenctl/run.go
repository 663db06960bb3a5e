package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wardenlab/wardenctl/callback"
	"github.com/wardenlab/wardenctl/capabilities"
	"github.com/wardenlab/wardenctl/domain/entities"
	"github.com/wardenlab/wardenctl/domain/ports"
	"github.com/wardenlab/wardenctl/host"
)

var (
	runRequestPath       string
	runSettingsPath      string
	runSettingsJSON      string
	runRecordPath        string
	runReplayPath        string
	runAllowContextAware bool
	runRaw               bool
)

var runCmd = &cobra.Command{
	Use:   "run <policy>",
	Short: "Execute a policy against an admission request",
	Long: `Execute a policy module against an admission request read from a file
(or stdin with --request-path -). The policy's host capability calls go to
the live backends by default; --record-host-capabilities-interactions writes
them to a session file, and --replay-host-capabilities-interactions serves
them back from one without touching any backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runRequestPath, "request-path", "", "path of the admission request (- for stdin)")
	runCmd.Flags().StringVar(&runSettingsPath, "settings-path", "", "path of the policy settings file")
	runCmd.Flags().StringVar(&runSettingsJSON, "settings-json", "", "policy settings as an inline JSON document")
	runCmd.Flags().StringVar(&runRecordPath, "record-host-capabilities-interactions", "", "record host capability calls to this session file")
	runCmd.Flags().StringVar(&runReplayPath, "replay-host-capabilities-interactions", "", "replay host capability calls from this session file")
	runCmd.Flags().BoolVar(&runAllowContextAware, "allow-context-aware", false, "allow the policy to query cluster resources")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "pass the request through untouched and print the raw response")

	_ = runCmd.MarkFlagRequired("request-path")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := proxyMode()
	if err != nil {
		return err
	}

	request, err := readInputFile(runRequestPath)
	if err != nil {
		return fmt.Errorf("cannot read admission request: %w", err)
	}
	settings, err := resolveSettings(runSettingsPath, runSettingsJSON)
	if err != nil {
		return err
	}

	wasmBytes, err := loadPolicyBytes(ctx, args[0])
	if err != nil {
		return err
	}

	proxy, err := callback.NewProxy(mode, liveGateway(), callback.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	executor, err := host.NewExecutor(ctx, proxy, host.WithExecutorLogger(slog.Default()))
	if err != nil {
		proxy.Close()
		return err
	}
	defer executor.Close(ctx)

	instance, err := executor.LoadPolicy(ctx, wasmBytes)
	if err != nil {
		return err
	}
	defer instance.Close(ctx)

	settingsResp, err := instance.ValidateSettings(ctx, settings)
	if err != nil {
		return err
	}
	if !settingsResp.Valid {
		return fmt.Errorf("policy rejected its settings: %s", settingsResp.Message)
	}

	if runRaw {
		response, err := instance.ValidateRaw(ctx, request)
		if err != nil {
			return err
		}
		return printJSON(response)
	}

	var admission entities.AdmissionRequest
	if err := json.Unmarshal(request, &admission); err != nil {
		return fmt.Errorf("cannot parse admission request: %w", err)
	}
	response, err := instance.Validate(ctx, admission, settings)
	if err != nil {
		return err
	}
	return printJSON(response)
}

// proxyMode derives the callback proxy mode from the record/replay flags.
func proxyMode() (callback.Mode, error) {
	switch {
	case runRecordPath != "" && runReplayPath != "":
		return callback.Mode{}, fmt.Errorf("--record-host-capabilities-interactions and --replay-host-capabilities-interactions are mutually exclusive")
	case runRecordPath != "":
		return callback.Record(runRecordPath), nil
	case runReplayPath != "":
		return callback.Replay(runReplayPath), nil
	default:
		return callback.Direct(), nil
	}
}

// liveGateway builds the capability backend gateway for direct and record
// modes. Replay mode never contacts a backend, so it gets none.
func liveGateway() ports.CapabilityGateway {
	if runReplayPath != "" {
		return nil
	}

	gateway := capabilities.NewGateway(capabilities.WithGatewayLogger(slog.Default()))
	if runAllowContextAware {
		return gateway
	}

	// Context-aware capabilities stay opt-in. Everything else passes through.
	return ports.GatewayFunc(func(ctx context.Context, req entities.CapabilityRequest) entities.CapabilityOutcome {
		if req.Capability == "kubernetes" {
			return entities.FailureOutcome(entities.FailureKindBackend,
				"policy requires cluster access; re-run with --allow-context-aware")
		}
		return gateway.Execute(ctx, req)
	})
}
