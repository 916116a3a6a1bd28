package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evidra/evidra/internal/llm"
	"github.com/evidra/evidra/internal/model"
	"github.com/evidra/evidra/internal/pipeline"
	"github.com/evidra/evidra/internal/registry"
	"github.com/evidra/evidra/internal/search"
	"github.com/evidra/evidra/internal/worker"
)

var (
	outputPath       string
	concurrency      int
	batchTimeout     time.Duration
	candidateTimeout time.Duration
	searchProvider   string
	searchURL        string
	sourcesPath      string
	maxURLs          int
	noCache          bool
	userAgent        string
	httpProxy        string
	httpsProxy       string
	verifyURLs       bool
	llmEnabled       bool
	llmModel         string
)

// enhanceCmd represents the enhance command
var enhanceCmd = &cobra.Command{
	Use:   "enhance <candidates.json>",
	Short: "Attach diverse web evidence to a batch of candidates",
	Long: `Enhance reads a JSON array of candidate records, runs every candidate
through the evidence pipeline in parallel, and writes the enhanced
records back out with evidence_urls, evidence_summary and
evidence_confidence fields appended.

Evidence is globally unique within the batch: a URL assigned to one
candidate is never assigned to another, and no domain exceeds the
global cap. Candidates that yield no searchable claims come back with
an empty evidence list, never an error.

Example:
  evidra enhance candidates.json
  evidra enhance candidates.json -o enhanced.json --concurrency 8
  evidra enhance candidates.json --provider mock --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func init() {
	rootCmd.AddCommand(enhanceCmd)

	enhanceCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	enhanceCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	enhanceCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	enhanceCmd.Flags().DurationVar(&candidateTimeout, "candidate-timeout", 30*time.Second, "timeout per candidate")
	enhanceCmd.Flags().StringVar(&searchProvider, "provider", "", "search provider (http, mock)")
	enhanceCmd.Flags().StringVar(&searchURL, "search-url", "", "search API base URL")
	enhanceCmd.Flags().StringVar(&sourcesPath, "sources", "", "YAML file overriding the built-in source directories")
	enhanceCmd.Flags().IntVar(&maxURLs, "max-urls", 0, "max evidence URLs per candidate")
	enhanceCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable search response caching")
	enhanceCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent")
	enhanceCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	enhanceCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	enhanceCmd.Flags().BoolVar(&verifyURLs, "verify", false, "probe selected URLs for liveness before output")
	enhanceCmd.Flags().BoolVar(&llmEnabled, "llm", false, "generate evidence summaries with OpenAI")
	enhanceCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildEnhanceConfig()
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	summarizer, err := llm.NewSummarizer(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configure summarizer: %w", err)
	}

	reg := registry.New(cfg.Registry)
	orch := pipeline.New(cfg, provider, reg, summarizer)
	processor := worker.NewBatchProcessor(orch, cfg.Concurrency.Workers)

	if verbose {
		fmt.Fprintf(os.Stderr, "Reading candidates from %s\n", file)
	}
	enhanced, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return err
	}

	if err := worker.WriteEnhancedFile(outputPath, enhanced); err != nil {
		return err
	}

	printBatchSummary(enhanced, reg)
	return nil
}

// buildEnhanceConfig layers CLI flags over file/env configuration and
// validates the result before any work starts.
func buildEnhanceConfig() (*model.Config, error) {
	cfg := loadConfig()

	if searchProvider != "" {
		cfg.Search.Provider = searchProvider
	}
	if searchURL != "" {
		cfg.Search.BaseURL = searchURL
	}
	if sourcesPath != "" {
		sources, err := loadSourcesFile(sourcesPath)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
	}
	if userAgent != "" {
		cfg.Search.UserAgent = userAgent
	}
	if httpProxy != "" {
		cfg.Search.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.Search.HTTPSProxy = httpsProxy
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("EVIDRA_SEARCH_API_KEY")
	}
	if maxURLs > 0 {
		cfg.Selection.MaxURLsPerCandidate = maxURLs
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if candidateTimeout > 0 {
		cfg.Concurrency.CandidateTimeout = candidateTimeout
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verifyURLs {
		cfg.Verify.Enabled = true
	}
	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	cfg.Output.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadSourcesFile reads a full source-directory replacement. Partial
// overrides go through the config file instead.
func loadSourcesFile(path string) (model.SourcesConfig, error) {
	var sources model.SourcesConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return sources, fmt.Errorf("read sources file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return sources, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	if len(sources.Alternatives) == 0 {
		return sources, fmt.Errorf("sources file %s defines no alternative sources", path)
	}
	return sources, nil
}

// buildProvider assembles the provider stack: backend, rate limiter,
// cache. The cache sits outermost so repeated queries in one batch
// never touch the limiter.
func buildProvider(cfg *model.Config) (search.Provider, error) {
	var provider search.Provider
	switch cfg.Search.Provider {
	case "mock":
		provider = search.NewMockProvider()
	case "http", "":
		if cfg.Search.BaseURL == "" {
			return nil, fmt.Errorf("search.base_url is required for the http provider (set --search-url or search.base_url in the config file)")
		}
		provider = search.NewHTTPProvider(cfg.Search)
	default:
		return nil, fmt.Errorf("unknown search provider: %q", cfg.Search.Provider)
	}

	provider = search.NewLimitedProvider(provider, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.Burst)
	if cfg.Cache.Enabled {
		provider = search.NewCachedProvider(provider, cfg.Cache.TTL)
	}
	return provider, nil
}

// printBatchSummary reports per-candidate outcomes and the batch-wide
// diversity metrics on stderr.
func printBatchSummary(enhanced []*model.EnhancedCandidate, reg *registry.Registry) {
	withEvidence := 0
	for _, e := range enhanced {
		if len(e.EvidenceURLs) > 0 {
			withEvidence++
		}
		if verbose {
			name := e.Candidate.Name
			if name == "" {
				name = e.Candidate.ID
			}
			fmt.Fprintf(os.Stderr, "  %-30s %d URLs (confidence %.2f)\n", name, len(e.EvidenceURLs), e.EvidenceConfidence)
		}
	}

	metrics := reg.Metrics()
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Candidates:     %d (%d with evidence)\n", len(enhanced), withEvidence)
	fmt.Fprintf(os.Stderr, "  Evidence URLs:  %d across %d domains\n", metrics.TotalURLs, metrics.UniqueDomains)
	fmt.Fprintf(os.Stderr, "  Diversity:      %.2f bits\n", metrics.DiversityIndex)
	fmt.Fprintf(os.Stderr, "  Uniqueness:     %.0f%%\n", metrics.UniquenessRate*100)
	if len(metrics.TierDistribution) > 0 {
		fmt.Fprintf(os.Stderr, "  Tiers:          ")
		for _, tier := range []model.SourceTier{model.TierMajor, model.TierMidTier, model.TierNiche, model.TierAlternative, model.TierEmerging} {
			if n := metrics.TierDistribution[tier]; n > 0 {
				fmt.Fprintf(os.Stderr, "%s=%d ", tier, n)
			}
		}
		fmt.Fprintf(os.Stderr, "\n")
	}
	fmt.Fprintf(os.Stderr, "\n")
}
