package ingestor

import (
	"context"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
)

// DatadogConfig selects which Datadog logs are pulled into the index.
type DatadogConfig struct {
	APIKey         string
	ApplicationKey string
	// Query is a Datadog log search query, "*" for everything.
	Query string
	// IntervalKey is one of ValidTimeIntervals, the lookback window.
	IntervalKey string
}

func DefaultDatadogConfig(apiKey, appKey string) DatadogConfig {
	return DatadogConfig{
		APIKey:         apiKey,
		ApplicationKey: appKey,
		Query:          "*",
		IntervalKey:    "ONE_DAY",
	}
}

func InitializeDataDog(cfg DatadogConfig) *datadog.APIClient {
	configuration := datadog.NewConfiguration()
	configuration.AddDefaultHeader("DD-API-KEY", cfg.APIKey)
	configuration.AddDefaultHeader("DD-APPLICATION-KEY", cfg.ApplicationKey)
	return datadog.NewAPIClient(configuration)
}

// datadogContext carries the keys the way the Datadog client expects them.
func datadogContext(ctx context.Context, cfg DatadogConfig) context.Context {
	return context.WithValue(ctx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {Key: cfg.APIKey},
		"appKeyAuth": {Key: cfg.ApplicationKey},
	})
}
