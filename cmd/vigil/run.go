package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/vigil/internal/classify"
	"github.com/tinytelemetry/vigil/internal/collector"
	"github.com/tinytelemetry/vigil/internal/eventlog"
	"github.com/tinytelemetry/vigil/internal/health"
	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
	"github.com/tinytelemetry/vigil/internal/probe"
	"github.com/tinytelemetry/vigil/internal/store"
)

// run starts the agent: storage, retention, probes, collectors, and the
// concurrent loops, then blocks until a termination signal.
func run(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	st, err := store.Open(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	retentionCleaner := store.NewRetentionCleaner(st, cfg.RetentionDays, cfg.EventRetentionDays)
	if retentionCleaner != nil {
		defer retentionCleaner.Stop()
	}

	policy := privacy.Policy{
		ExcludeProcesses:     cfg.ExcludeProcesses,
		SensitiveKeywords:    cfg.SensitiveKeywords,
		HashMessages:         cfg.HashMessages,
		HashUserNames:        cfg.HashUserNames,
		StoreMessageHashOnly: cfg.StoreMessageHashOnly,
	}

	fg, idle, err := probe.NewForPlatform()
	if err != nil {
		return fmt.Errorf("failed to initialize probes: %w", err)
	}

	// Event collection is optional; a platform without a usable log
	// facility degrades to activity-only operation.
	var events eventlog.Collector
	if cfg.EventCollectionEnabled {
		rules, err := classify.LoadRules(cfg.ClassificationRules)
		if err != nil {
			return fmt.Errorf("failed to load classification rules: %w", err)
		}
		classifier, err := classify.New(rules)
		if err != nil {
			return fmt.Errorf("failed to compile classification rules: %w", err)
		}
		events, err = eventlog.NewForPlatform(eventlog.Config{
			WindowsLogNames:  cfg.WindowsLogNames,
			LinuxFacilities:  cfg.LinuxFacilities,
			LinuxPriorityMin: cfg.LinuxPriorityMin,
		}, classifier, policy, "")
		if err != nil {
			log.Printf("Warning: event collection unavailable: %v", err)
			events = nil
		}
	}

	monitor := health.NewMonitor()

	col := collector.New(collector.Config{
		SamplingInterval:   cfg.SamplingInterval,
		IdleThreshold:      cfg.IdleThreshold,
		BatchSize:          cfg.BatchSize,
		WriteTimeout:       cfg.WriteTimeout,
		MaxQueueSize:       cfg.MaxQueueSize,
		SnapshotInterval:   cfg.SnapshotInterval,
		CollectionInterval: cfg.CollectionInterval,
		EventTypes:         cfg.EventTypes,
		SLO: model.SLOThresholds{
			MaxDelayP95Seconds: cfg.SLOMaxDelayP95,
			MaxDroppedEvents:   cfg.SLOMaxDroppedEvents,
			MaxWriteTimeP95MS:  cfg.SLOMaxWriteP95MS,
			MaxQueueDepth:      cfg.SLOMaxQueueDepth,
		},
	}, st, monitor, fg, idle, events, policy, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, events != nil)

	return col.Run(ctx)
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "vigil")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "vigil.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, eventsEnabled bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦  ╦╦╔═╗╦╦
    ╚╗╔╝║║ ╦║║
     ╚╝ ╩╚═╝╩╩═╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Collection"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Sampling       %s", check, cyan.Render(cfg.SamplingInterval.String())))
	lines = append(lines, fmt.Sprintf("    %s  Idle threshold %s", check, cyan.Render(cfg.IdleThreshold.String())))
	if eventsEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Event logs     %s", check, cyan.Render(cfg.CollectionInterval.String())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Event logs     %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Database       %s", check, dim.Render(shortenPath(cfg.DBPath))))
	if cfg.RetentionDays > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Retention      %s", check, dim.Render(fmt.Sprintf("%d days", cfg.RetentionDays))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Retention      %s", dot, dim.Render("disabled")))
	}
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config         %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	}
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

// shortenPath abbreviates the home directory to ~ for display.
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
