package analyzer

import (
	"time"

	"github.com/ricardonunez-io/lograg/internal/retry"
)

const DefaultTopK = 5

type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64

	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	Retry             retry.Config

	// IncludeMetadata prefixes each retrieved body with its timestamp, level
	// and process header in the generation request.
	IncludeMetadata bool
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		Model:             "claude-sonnet-4-5",
		MaxTokens:         2048,
		RetrievalTimeout:  30 * time.Second,
		GenerationTimeout: 2 * time.Minute,
		Retry:             retry.DefaultConfig(),
	}
}
