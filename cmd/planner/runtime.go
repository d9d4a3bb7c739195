package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vinayprograms/agentkit/llm"

	"github.com/vinayprograms/planner/internal/activities"
	"github.com/vinayprograms/planner/internal/config"
	"github.com/vinayprograms/planner/internal/dispatch"
	"github.com/vinayprograms/planner/internal/metrics"
	"github.com/vinayprograms/planner/internal/planning"
	"github.com/vinayprograms/planner/internal/tools"
)

// runtime is the wired object graph shared by serve and turn.
type runtime struct {
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	builder    *planning.Builder
	toolset    *tools.Toolset
	dispatcher *dispatch.Dispatcher
}

// newBuilder wires the live activity source unless offline is set.
func newBuilder(cfg *config.Config, m *metrics.Metrics, offline bool) (*planning.Builder, error) {
	if offline {
		return planning.NewBuilder(nil), nil
	}
	acfg, err := activitiesConfig(cfg.Activities)
	if err != nil {
		return nil, err
	}
	return planning.NewBuilder(activities.New(acfg, activities.WithMetrics(m))), nil
}

// newRuntime builds everything a turn needs, including the model provider.
func newRuntime(cfg *config.Config) (*runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.MustNew(reg)

	builder, err := newBuilder(cfg, m, false)
	if err != nil {
		return nil, err
	}
	toolset := tools.NewToolset(builder, config.Seconds(cfg.Dispatch.ToolTimeout))

	provider, providerName, err := newProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(provider, dispatchOptions(cfg),
		dispatch.WithExecutor(toolset),
		dispatch.WithMetrics(m),
		dispatch.WithProviderName(providerName),
	)
	if err != nil {
		return nil, err
	}
	return &runtime{metrics: m, registry: reg, builder: builder, toolset: toolset, dispatcher: d}, nil
}

// newProvider creates the LLM provider from config and reports the
// provider name it resolved.
func newProvider(c config.LLMConfig) (llm.Provider, string, error) {
	providerName := c.Provider
	if providerName == "" {
		providerName = llm.InferProviderFromModel(c.Model)
	}
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Provider:    providerName,
		Model:       c.Model,
		APIKey:      apiKey(c, providerName),
		MaxTokens:   c.MaxTokens,
		BaseURL:     c.BaseURL,
		Thinking:    llm.ThinkingConfig{Level: llm.ThinkingLevel(c.Thinking)},
		RetryConfig: parseRetryConfig(c.MaxRetries, c.RetryBackoff),
	})
	if err != nil {
		return nil, providerName, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, providerName, nil
}

// apiKey resolves the model key: credentials file first, then the environment.
func apiKey(c config.LLMConfig, providerName string) string {
	if globalCreds != nil {
		if key := globalCreds.GetAPIKey(providerName); key != "" {
			return key
		}
	}
	return c.GetAPIKey(providerName, os.Getenv)
}

// dispatchOptions converts the [dispatch] section.
func dispatchOptions(cfg *config.Config) dispatch.Options {
	return dispatch.Options{
		MaxDocumentChars: cfg.Dispatch.MaxDocumentChars,
		MaxHistory:       cfg.Dispatch.MaxHistory,
		MaxIterations:    cfg.Dispatch.MaxIterations,
		MaxTokens:        cfg.LLM.MaxTokens,
		TurnTimeout:      config.Seconds(cfg.Dispatch.TurnTimeout),
	}
}

// activitiesConfig converts the [activities] section. Zero values keep the
// adapter defaults.
func activitiesConfig(c config.ActivitiesConfig) (activities.Config, error) {
	out := activities.DefaultConfig()
	ttl, err := c.TTL()
	if err != nil {
		return out, err
	}
	if c.APIKeyEnv != "" {
		out.APIKeyEnv = c.APIKeyEnv
	}
	if c.BaseURL != "" {
		out.BaseURL = c.BaseURL
	}
	if c.Radius > 0 {
		out.Radius = c.Radius
	}
	if c.DetailLimit != 0 {
		out.DetailLimit = c.DetailLimit
	}
	if c.GeocodeTimeout > 0 {
		out.GeocodeTimeout = config.Seconds(c.GeocodeTimeout)
	}
	if c.SearchTimeout > 0 {
		out.SearchTimeout = config.Seconds(c.SearchTimeout)
	}
	if c.DetailTimeout > 0 {
		out.DetailTimeout = config.Seconds(c.DetailTimeout)
	}
	if c.CacheSize > 0 {
		out.CacheSize = c.CacheSize
	}
	if ttl > 0 {
		out.CacheTTL = ttl
	}
	out.RequestsPerSecond = c.RequestsPerSecond
	return out, nil
}
