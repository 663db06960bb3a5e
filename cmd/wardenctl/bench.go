package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenlab/wardenctl/callback"
	"github.com/wardenlab/wardenctl/domain/entities"
	"github.com/wardenlab/wardenctl/host"
)

var (
	benchMeasurementTime time.Duration
	benchNumSamples      int
	benchWarmUpTime      time.Duration
)

var benchCmd = &cobra.Command{
	Use:   "bench <policy>",
	Short: "Benchmark a policy against an admission request",
	Long: `Repeatedly execute a policy against the same admission request and report
iteration throughput per sample. Accepts the same evaluation flags as run;
replaying a session that holds fewer outcomes than the benchmark consumes
will surface capability_not_recorded failures to the policy.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&runRequestPath, "request-path", "", "path of the admission request (- for stdin)")
	benchCmd.Flags().StringVar(&runSettingsPath, "settings-path", "", "path of the policy settings file")
	benchCmd.Flags().StringVar(&runSettingsJSON, "settings-json", "", "policy settings as an inline JSON document")
	benchCmd.Flags().StringVar(&runRecordPath, "record-host-capabilities-interactions", "", "record host capability calls to this session file")
	benchCmd.Flags().StringVar(&runReplayPath, "replay-host-capabilities-interactions", "", "replay host capability calls from this session file")
	benchCmd.Flags().BoolVar(&runAllowContextAware, "allow-context-aware", false, "allow the policy to query cluster resources")
	benchCmd.Flags().DurationVar(&benchMeasurementTime, "measurement-time", 5*time.Second, "how long each sample runs")
	benchCmd.Flags().IntVar(&benchNumSamples, "num-samples", 3, "number of samples to collect")
	benchCmd.Flags().DurationVar(&benchWarmUpTime, "warm-up-time", time.Second, "warm-up period before sampling")

	_ = benchCmd.MarkFlagRequired("request-path")
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := proxyMode()
	if err != nil {
		return err
	}

	request, err := readInputFile(runRequestPath)
	if err != nil {
		return fmt.Errorf("cannot read admission request: %w", err)
	}
	var admission entities.AdmissionRequest
	if err := json.Unmarshal(request, &admission); err != nil {
		return fmt.Errorf("cannot parse admission request: %w", err)
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

	evaluate := func() error {
		_, err := instance.Validate(ctx, admission, settings)
		return err
	}

	for start := time.Now(); time.Since(start) < benchWarmUpTime; {
		if err := evaluate(); err != nil {
			return err
		}
	}

	for sample := 1; sample <= benchNumSamples; sample++ {
		iterations := 0
		start := time.Now()
		for time.Since(start) < benchMeasurementTime {
			if err := evaluate(); err != nil {
				return err
			}
			iterations++
		}
		result := testing.BenchmarkResult{N: iterations, T: time.Since(start)}
		fmt.Printf("sample %d/%d:%s\n", sample, benchNumSamples, result.String())
	}
	return nil
}
