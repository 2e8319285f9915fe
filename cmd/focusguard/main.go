// Package main is the CLI entry point for focusguard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"focusguard/internal/config"
	"focusguard/internal/daemon"
	"focusguard/internal/domain"
	"focusguard/internal/infra"
	"focusguard/internal/policy"
	"focusguard/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "focusguard",
	Short: "Focus mode daemon - blocks distractions while you work",
	Long: `focusguard watches the focused application, classifies it as
productive or distracting, and enforces focus mode when needed:
distracting sites are blocked in the hosts file, notifications are
silenced, and audio is muted. Sessions are logged for later review.`,
	Version: Version,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the focus daemon",
	Long: `Starts the focus daemon in the background. The daemon polls the
focused application and enters focus mode whenever a distracting app
is detected. Use --foreground to run in the current terminal.`,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the focus daemon",
	RunE:  runStopCmd,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon state and the current focus session",
	RunE:  runStatus,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent focus sessions",
	RunE:  runSessions,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <app-name>",
	Short: "Show how an application name would be classified",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

// Hidden run command - the actual daemon loop, used for self-exec.
var runCmd = &cobra.Command{
	Use:    "run",
	Hidden: true,
	RunE:   runDaemon,
}

var (
	configPath    string
	foreground    bool
	sessionsLimit int
	jsonOutput    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	startCmd.Flags().BoolVar(&foreground, "foreground", false, "Run in the foreground instead of detaching")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 10, "Maximum number of sessions to show")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if foreground {
		return runDaemon(cmd, args)
	}

	pidFile := daemon.NewPIDFile(cfg.PIDFile)
	if running, pid, _ := pidFile.IsRunning(); running {
		fmt.Printf("focusguard is already running (pid %d)\n", pid)
		return nil
	}

	if err := daemon.Spawn(configPath); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Give the daemon a moment to come up and write its pid.
	time.Sleep(500 * time.Millisecond)

	fmt.Println("focusguard started")
	fmt.Printf("Watching %d distracting and %d productive app patterns\n",
		len(cfg.DistractingApps), len(cfg.ProductiveApps))
	fmt.Printf("Blocking %d sites during focus mode\n", len(cfg.BlockedSites))
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := createLogger(cfg.LogPath)
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidFile := daemon.NewPIDFile(cfg.PIDFile)
	if running, pid, _ := pidFile.IsRunning(); running {
		return fmt.Errorf("focusguard is already running (pid %d)", pid)
	}
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() { _ = pidFile.Remove() }()

	source, err := infra.NewActivitySource()
	if err != nil {
		return fmt.Errorf("no usable activity source: %w", err)
	}
	defer func() { _ = source.Close() }()
	logger.Info("activity source selected", zap.String("source", source.Name()))

	store, err := infra.NewSessionStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	schedule, err := cfg.ParseSchedule()
	if err != nil {
		return err
	}
	engine := policy.NewEngine(domain.PolicyConfig{
		ProductiveApps:  cfg.ProductiveApps,
		DistractingApps: cfg.DistractingApps,
		BlockedSites:    cfg.BlockedSites,
	}, schedule)

	effector := usecase.NewSystemEffector(
		infra.NewHostsBlockerWithPath(cfg.HostsPath),
		infra.NewGnomeSettings(logger),
		logger,
	)

	orch := daemon.NewOrchestrator(
		daemon.OrchestratorConfig{
			PollInterval:      cfg.PollInterval.Std(),
			DegradedThreshold: cfg.DegradedThreshold,
			BlockedSites:      cfg.BlockedSites,
		},
		source,
		engine,
		effector,
		store,
		infra.NewStatusFile(cfg.StatusPath),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := orch.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown did not complete cleanly", zap.Error(err))
		}
		cancel()
	}()

	if err := orch.Start(ctx); err != nil {
		return err
	}

	<-orch.Done()
	return nil
}

func runStopCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pidFile := daemon.NewPIDFile(cfg.PIDFile)
	if err := pidFile.Stop(); err != nil {
		return err
	}
	fmt.Println("focusguard stopped")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	statusFile := infra.NewStatusFile(cfg.StatusPath)
	snap, err := statusFile.Load()
	if err != nil {
		return err
	}

	fmt.Println("\n=== focusguard Status ===")

	if infra.Stale(snap, 3*cfg.PollInterval.Std()) {
		fmt.Println("Status: NOT RUNNING")
		fmt.Println("\nRun 'focusguard start' to begin watching.")
		return nil
	}

	switch {
	case snap.Degraded:
		fmt.Println("Status: DEGRADED (activity detection unavailable)")
		fmt.Printf("        %d consecutive sample failures\n", snap.SourceFailures)
	case snap.State == domain.StateActive:
		fmt.Println("Status: FOCUS MODE ACTIVE")
		fmt.Printf("Current app: %s\n", snap.CurrentApp)
		fmt.Printf("Session elapsed: %s\n", snap.Elapsed.Round(time.Second))
	default:
		fmt.Println("Status: IDLE (watching)")
		if snap.CurrentApp != "" {
			fmt.Printf("Current app: %s\n", snap.CurrentApp)
		}
	}

	if snap.LastError != "" {
		fmt.Printf("Last error: %s\n", snap.LastError)
	}
	fmt.Printf("Last heartbeat: %s ago (pid %d)\n",
		time.Since(snap.UpdatedAt).Round(time.Second), snap.PID)
	fmt.Println("=========================")
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := infra.NewSessionStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sessions, err := store.Recent(sessionsLimit)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	fmt.Println("\n=== Recent Focus Sessions ===")
	for _, s := range sessions {
		end := "open"
		duration := time.Since(s.StartedAt).Round(time.Second).String()
		if s.EndedAt != nil {
			end = s.EndedAt.Local().Format("15:04:05")
			duration = (time.Duration(s.DurationSeconds) * time.Second).String()
		}
		fmt.Printf("%s  %-20s %s - %s  (%s)\n",
			s.StartedAt.Local().Format("2006-01-02"),
			s.AppName,
			s.StartedAt.Local().Format("15:04:05"),
			end,
			duration)
	}
	fmt.Println("=============================")
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	schedule, err := cfg.ParseSchedule()
	if err != nil {
		return err
	}
	engine := policy.NewEngine(domain.PolicyConfig{
		ProductiveApps:  cfg.ProductiveApps,
		DistractingApps: cfg.DistractingApps,
	}, schedule)

	verdict := engine.Classify(args[0])
	fmt.Printf("%s: %s\n", args[0], verdict)
	if verdict == domain.Distracting {
		fmt.Println("Focus mode would activate on this app.")
	}
	return nil
}

func createLogger(logPath string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if logPath != "" {
		_ = os.MkdirAll(filepath.Dir(logPath), 0755)
		cfg.OutputPaths = []string{logPath}
		cfg.ErrorOutputPaths = []string{logPath}
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Fall back to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("focusguard %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
	}
}
