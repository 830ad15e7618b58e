package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avelasco/trainsight/internal/analyze"
	"github.com/avelasco/trainsight/internal/cache"
	"github.com/avelasco/trainsight/internal/config"
	"github.com/avelasco/trainsight/internal/garmin"
	"github.com/avelasco/trainsight/internal/report"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configCheckCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	analyzeCmd.Flags().Int("days", 0, "Days of history to analyze (default from config)")
	analyzeCmd.Flags().String("provider", "", "LLM provider (anthropic, openai, googleai)")
	analyzeCmd.Flags().String("model", "", "Model name (default: provider default)")
	analyzeCmd.Flags().String("output-dir", "", "Directory for generated reports")
	analyzeCmd.Flags().String("training-plan", "", "Path to a training plan file to include")
	analyzeCmd.Flags().Int("cache-ttl", 0, "Cache TTL in hours")
}

// analyzeCmd runs the full fetch + analyze + report pipeline
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch recent training data and generate a coaching analysis",
	RunE:  handleAnalyze,
}

// cacheCmd groups cache maintenance subcommands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the local data cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts, sizes and TTLs",
	RunE:  handleCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE:  handleCachePurge,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cache entries",
	RunE:  handleCacheClear,
}

// configCmd groups configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and prompt setup",
	RunE:  handleConfigCheck,
}

func handleAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	store, err := cache.New(cfg.CacheConfig(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	client := garmin.NewClient(cfg.Garmin.Token, cfg.Garmin.BaseURL, logger)
	svc := garmin.NewService(client, store, cfg.CacheConfig().TTL, logger)

	analyzer, err := analyze.NewAnalyzer(ctx, analyze.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		return err
	}

	bundle, err := gatherBundle(ctx, svc, cfg, logger)
	if err != nil {
		return err
	}

	analysis, err := analyzer.Analyze(ctx, bundle)
	if err != nil {
		return err
	}

	r := report.NewReport(bundle.AthleteName(), cfg.Analysis.Days,
		cfg.LLM.Provider, cfg.LLM.Model, bundle.Activities, bundle.Body, analysis)
	writer, err := report.NewWriter(cfg.Analysis.OutputDir, logger)
	if err != nil {
		return err
	}
	paths, err := writer.WriteAll(r)
	if err != nil {
		return err
	}

	fmt.Println("Analysis complete. Reports written:")
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %s\n", k, paths[k])
	}
	return nil
}

func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) {
	if days, _ := cmd.Flags().GetInt("days"); days > 0 {
		cfg.Analysis.Days = days
	}
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		cfg.LLM.Provider = provider
		if !cmd.Flags().Changed("model") {
			cfg.LLM.Model = ""
		}
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.LLM.Model = model
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Analysis.OutputDir = dir
	}
	if plan, _ := cmd.Flags().GetString("training-plan"); plan != "" {
		cfg.Analysis.TrainingPlanPath = plan
	}
	if ttl, _ := cmd.Flags().GetInt("cache-ttl"); ttl > 0 {
		cfg.Cache.TTLHours = ttl
	}
	cfg.ApplyProviderDefaults()
}

// gatherBundle fetches everything the analyzer needs through the cached
// service. Optional data degrades to empty rather than failing the run.
func gatherBundle(ctx context.Context, svc *garmin.Service, cfg *config.Config, logger *slog.Logger) (*analyze.Bundle, error) {
	activities, err := svc.ActivitiesRange(ctx, cfg.Analysis.Days)
	if err != nil {
		return nil, err
	}

	details := make(map[int64]*garmin.ActivityDetail, len(activities))
	for _, a := range activities {
		d, err := svc.ActivityDetail(ctx, a.ID)
		if err != nil {
			logger.Warn("activity detail unavailable", "activity_id", a.ID, "error", err)
			continue
		}
		details[a.ID] = d
	}

	body, err := svc.BodyCompositionRange(ctx, cfg.Analysis.Days)
	if err != nil {
		logger.Warn("body composition unavailable", "error", err)
	}
	sleep, err := svc.SleepRange(ctx, cfg.Analysis.Days)
	if err != nil {
		logger.Warn("sleep data unavailable", "error", err)
	}
	profile, err := svc.Profile(ctx)
	if err != nil {
		logger.Warn("profile unavailable", "error", err)
	}

	plan := ""
	if cfg.Analysis.TrainingPlanPath != "" {
		raw, err := os.ReadFile(cfg.Analysis.TrainingPlanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read training plan %s: %w", cfg.Analysis.TrainingPlanPath, err)
		}
		plan = string(raw)
	}

	return &analyze.Bundle{
		Profile:      profile,
		Activities:   activities,
		Details:      details,
		Body:         body,
		Sleep:        sleep,
		TrainingPlan: plan,
	}, nil
}

func openStore(cmd *cobra.Command) (cache.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	store, err := cache.New(cfg.CacheConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func handleCacheStats(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Cache directory: %s\n", cfg.Cache.Dir)
	fmt.Printf("Entries: %d total, %d valid, %d expired\n",
		stats.TotalEntries, stats.ValidEntries, stats.ExpiredEntries)
	fmt.Printf("Size: %.1f MiB\n", float64(stats.SizeBytes)/(1<<20))

	kinds := make([]string, 0, len(stats.Kinds))
	for k := range stats.Kinds {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		ks := stats.Kinds[cache.Kind(k)]
		fmt.Printf("  %-18s %4d entries  %8d bytes  ttl %s\n",
			k, ks.Entries, ks.Bytes, stats.TTL[cache.Kind(k)])
	}
	return nil
}

func handleCachePurge(cmd *cobra.Command, args []string) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.ClearExpired(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired entries\n", removed)
	return nil
}

func handleCacheClear(cmd *cobra.Command, args []string) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.ClearAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d entries\n", removed)
	return nil
}

func handleConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Provider: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Printf("Cache: enabled=%t dir=%s ttl=%dh\n",
		cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLHours)
	fmt.Printf("Analysis: %d days, output %s\n", cfg.Analysis.Days, cfg.Analysis.OutputDir)

	if err := analyze.ValidatePrompts(); err != nil {
		return err
	}
	fmt.Println("Prompts: ok")

	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Println("Configuration: ok")
	return nil
}
