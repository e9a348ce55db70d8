package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/vigil/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Vigil - Activity Telemetry Agent\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "vigil", "vigil.db")

	v := viper.New()
	v.SetEnvPrefix("VIGIL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("sampling-interval", defaultSamplingInterval)
	v.SetDefault("idle-threshold", defaultIdleThreshold)
	v.SetDefault("batch-size", defaultBatchSize)
	v.SetDefault("write-timeout", defaultWriteTimeout)
	v.SetDefault("max-queue-size", defaultMaxQueueSize)
	v.SetDefault("snapshot-interval", defaultSnapshotInterval)
	v.SetDefault("retention-days", defaultRetentionDays)
	v.SetDefault("event-retention-days", defaultRetentionDays)
	v.SetDefault("slo-max-delay-p95", defaultSLOMaxDelayP95)
	v.SetDefault("slo-max-dropped-events", defaultSLOMaxDropped)
	v.SetDefault("slo-max-write-p95-ms", defaultSLOMaxWriteP95)
	v.SetDefault("slo-max-queue-depth", defaultSLOMaxQueueDepth)
	v.SetDefault("event-collection-enabled", false)
	v.SetDefault("collection-interval", defaultCollectionInterval)
	v.SetDefault("windows-log-names", []string{"Application", "System"})
	v.SetDefault("linux-facilities", []string{"kern", "user", "daemon"})
	v.SetDefault("linux-priority-min", defaultLinuxPriorityMin)
	v.SetDefault("hash-messages", true)
	v.SetDefault("hash-user-names", true)
	v.SetDefault("store-message-hash-only", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "vigil", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.SamplingInterval <= 0 {
		return cfg, fmt.Errorf("invalid sampling-interval: %v", cfg.SamplingInterval)
	}
	if cfg.IdleThreshold <= 0 {
		return cfg, fmt.Errorf("invalid idle-threshold: %v", cfg.IdleThreshold)
	}
	if cfg.BatchSize <= 0 {
		return cfg, fmt.Errorf("invalid batch-size: %d", cfg.BatchSize)
	}
	if cfg.MaxQueueSize <= 0 {
		return cfg, fmt.Errorf("invalid max-queue-size: %d", cfg.MaxQueueSize)
	}

	return cfg, nil
}
