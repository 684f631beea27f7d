package main

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"netimpair/pkg/config"
	"netimpair/pkg/impairment"
	"netimpair/pkg/metrics"
	"netimpair/pkg/netpeer"
	"netimpair/pkg/pipeline"
	"netimpair/pkg/reporting"
	"netimpair/pkg/shutdown"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run the impairment proxy for one project/scenario pair",
	Long: `Runs the proxy until the process is signaled (SIGINT/SIGTERM). Creates
./Runs/<project>/<scenario>/ (which must not already exist) and writes a
data.csv impairment trace to it, plus a supplementary summary.json on
clean shutdown.`,
	RunE: runProxy,
}

func init() {
	runCmd.Flags().String("project", "", "top-level run directory name under the runs dir (required)")
	runCmd.Flags().String("scenario", "", "Best, Average, Worst, or Testing (required)")
	runCmd.Flags().Int64("seed", 0, "master PRNG seed (overrides config)")
	runCmd.Flags().String("listen", "", "listen address (overrides config, default 127.0.0.1:2003)")
	runCmd.Flags().String("peer", "", "address to pre-learn as a peer before its first packet arrives (overrides config, default 127.0.0.1:2004)")
	runCmd.Flags().String("metrics-addr", "", "address to serve Prometheus metrics on (overrides config and enables metrics; empty leaves the config setting, disabled by default)")
	runCmd.Flags().String("format", "text", "progress output format (text, json, tui)")
	runCmd.Flags().Bool("dry-run", false, "validate the scenario and run directory without binding a socket")

	runCmd.MarkFlagRequired("project")
	runCmd.MarkFlagRequired("scenario")
}

func runProxy(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetString("project")
	scenarioName, _ := cmd.Flags().GetString("scenario")
	seedFlag, _ := cmd.Flags().GetInt64("seed")
	listenFlag, _ := cmd.Flags().GetString("listen")
	peerFlag, _ := cmd.Flags().GetString("peer")
	metricsAddrFlag, _ := cmd.Flags().GetString("metrics-addr")
	outputFormat, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if listenFlag != "" {
		cfg.Network.ListenAddr = listenFlag
	}
	if seedFlag != 0 {
		cfg.Network.Seed = seedFlag
	}
	if metricsAddrFlag != "" {
		cfg.Metrics.Addr = metricsAddrFlag
		cfg.Metrics.Enabled = true
	}
	if peerFlag != "" {
		cfg.Network.PeerAddr = peerFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := reporting.LogLevelInfo
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})
	logger.Info("netimpair starting", "version", version)

	master := rand.New(rand.NewSource(cfg.Network.Seed))
	dims, err := impairment.BuildScenario(scenarioName, master)
	if err != nil {
		return err
	}

	v := impairment.NewValidator()
	if verr := v.Validate(impairment.UpdateEvery, dims); verr != nil {
		return fmt.Errorf("scenario validation failed: %w", verr)
	}
	if v.HasWarnings() {
		logger.Warn("Scenario has warnings")
		for _, w := range v.Warnings {
			logger.Warn("  " + w)
		}
	}

	runDir := reporting.ResolveRunDir(cfg.Reporting.RunsDir, project, time.Now())
	scenarioDir := runDir + "/" + scenarioName

	if dryRun {
		if _, err := os.Stat(scenarioDir); err == nil {
			return fmt.Errorf("run directory %s already exists", scenarioDir)
		}
		fmt.Println("scenario and configuration are valid (dry-run mode)")
		return nil
	}

	now := time.Now()
	state, err := impairment.NewState(scenarioDir, impairment.UpdateEvery, dims, now)
	if err != nil {
		return fmt.Errorf("failed to create impairment state: %w", err)
	}

	pl, err := pipeline.New(cfg.Network.ListenAddr, state, rand.New(rand.NewSource(master.Int63())), logger.GetZerologLogger())
	if err != nil {
		state.Close()
		return fmt.Errorf("failed to bind pipeline socket: %w", err)
	}

	// A harness typically drives traffic one-directionally: the
	// receiver never sends a packet of its own, so it must be
	// pre-seeded as a known peer, or the peer table never reaches two
	// entries and every packet from the sender is dropped as
	// unroutable.
	if cfg.Network.PeerAddr != "" {
		udpAddr, err := net.ResolveUDPAddr("udp4", cfg.Network.PeerAddr)
		if err != nil {
			state.Close()
			pl.Close()
			return fmt.Errorf("invalid peer address %q: %w", cfg.Network.PeerAddr, err)
		}
		pl.PreLearnPeer(netpeer.FromUDPAddr(udpAddr))
		logger.Info("pre-learned peer", "addr", cfg.Network.PeerAddr)
	}

	var metricsServer interface{ Close() error }
	if cfg.Metrics.Enabled {
		srv := metrics.Serve(cfg.Metrics.Addr)
		logger.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
		metricsServer = srv
	}

	runID := xid.New().String()
	storage, err := reporting.NewStorage(scenarioDir, 0, logger)
	if err != nil {
		return fmt.Errorf("failed to create run storage: %w", err)
	}

	sc := shutdown.New()
	sc.OnShutdown("close impairment trace", state.Close)
	sc.OnShutdown("close pipeline socket", pl.Close)
	if metricsServer != nil {
		sc.OnShutdown("close metrics endpoint", metricsServer.Close)
	}
	sc.Watch()

	progress := reporting.NewProgressReporter(reporting.OutputFormat(outputFormat), logger)

	logger.Info("proxy running", "project", project, "scenario", scenarioName, "listen", cfg.Network.ListenAddr, "run_id", runID)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sc.Done():
			summary := &reporting.RunSummary{
				RunID:     runID,
				Project:   project,
				Scenario:  scenarioName,
				Seed:      cfg.Network.Seed,
				StartTime: now,
				EndTime:   time.Now(),
				Duration:  time.Since(now).String(),
				Status:    reporting.StatusCompleted,
			}
			for _, entry := range sc.AuditLog() {
				se := reporting.ShutdownEntry{Timestamp: entry.Timestamp, Action: entry.Action, Success: entry.Success}
				if entry.Error != nil {
					se.Error = entry.Error.Error()
				}
				summary.ShutdownLog = append(summary.ShutdownLog, se)
			}
			if _, err := storage.SaveReport(summary); err != nil {
				logger.Warn("failed to save run summary", "error", err)
			}
			progress.ReportRunCompleted(summary)
			return nil
		case <-ticker.C:
			progress.ReportState(reporting.LiveState{
				RunID:      runID,
				Scenario:   scenarioName,
				StartTime:  now,
				Elapsed:    time.Since(now),
				Bandwidth:  state.Bandwidth(),
				Latency:    state.Latency(),
				Loss:       state.Loss(),
				Corruption: state.CorruptionRate(),
			})
		default:
			busy, err := pl.Step(time.Now())
			if err != nil {
				logger.Error("pipeline error", "error", err)
				sc.Trigger(fmt.Sprintf("pipeline error: %v", err))
				continue
			}
			if !busy {
				time.Sleep(pipeline.IdleSleep)
			}
		}
	}
}
