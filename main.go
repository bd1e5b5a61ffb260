package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/ricardonunez-io/lograg/internal/analyzer"
	"github.com/ricardonunez-io/lograg/internal/index"
	"github.com/ricardonunez-io/lograg/internal/ingestor"
	"github.com/ricardonunez-io/lograg/internal/parser"
	"github.com/ricardonunez-io/lograg/internal/shell"
	slackpkg "github.com/ricardonunez-io/lograg/internal/slack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload"
)

const collectionName = "linux_log"

type options struct {
	file            string
	source          string
	topK            int
	indexPath       string
	resetIndex      bool
	skipIngest      bool
	embedder        string
	includeMetadata bool
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(logLevel(os.Getenv("LOG_LEVEL")))

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lograg: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{
		file:            envOr("LOG_FILE", "Linux_2k.log"),
		source:          envOr("LOG_SOURCE", "file"),
		topK:            envInt("TOP_K", analyzer.DefaultTopK),
		indexPath:       os.Getenv("INDEX_PATH"),
		embedder:        envOr("EMBEDDER", "hash"),
		includeMetadata: envBool("INCLUDE_METADATA"),
	}

	cmd := &cobra.Command{
		Use:           "lograg",
		Short:         "Ask questions about syslog files with retrieval-augmented generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", opts.file, "log file to ingest (source=file)")
	f.StringVar(&opts.source, "source", opts.source, "log source: file or datadog")
	f.IntVarP(&opts.topK, "top-k", "k", opts.topK, "number of log entries retrieved per question")
	f.StringVar(&opts.indexPath, "index-path", opts.indexPath, "directory of a persistent index; empty keeps it in memory")
	f.BoolVar(&opts.resetIndex, "reset-index", false, "delete the persistent index before ingesting")
	f.BoolVar(&opts.skipIngest, "skip-ingest", false, "query an existing persistent index without ingesting")
	f.StringVar(&opts.embedder, "embedder", opts.embedder, "embedding backend: hash or gemini")
	f.BoolVar(&opts.includeMetadata, "include-metadata", opts.includeMetadata, "prefix retrieved entries with timestamp, level and process")

	return cmd
}

func run(parent context.Context, opts options) error {
	log.Info().Msg("Starting lograg")

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	if anthropicKey == "" {
		log.Fatal().Msg("ANTHROPIC_API_KEY is required")
	}

	if opts.source != "file" && opts.source != "datadog" {
		log.Warn().Str("value", opts.source).Msg("Invalid LOG_SOURCE, defaulting to file")
		opts.source = "file"
	}
	if opts.topK <= 0 {
		log.Warn().Int("value", opts.topK).Msg("Invalid TOP_K, defaulting to 5")
		opts.topK = analyzer.DefaultTopK
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		// Unblocks the prompt reader.
		_ = os.Stdin.Close()
	}()

	embedder, err := newEmbedder(ctx, opts.embedder)
	if err != nil {
		return err
	}

	store, err := newStore(opts)
	if err != nil {
		return err
	}
	collection := index.NewCollection(collectionName, store, embedder)
	defer collection.Close()

	if !opts.skipIngest {
		if err := ingest(ctx, opts, collection); err != nil {
			return err
		}
	}

	count, err := collection.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count indexed entries: %w", err)
	}

	analyzerConfig := analyzer.DefaultConfig(anthropicKey)
	if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
		analyzerConfig.Model = model
	}
	analyzerConfig.IncludeMetadata = opts.includeMetadata

	generator, err := analyzer.NewAnthropicGenerator(analyzerConfig)
	if err != nil {
		return err
	}

	var answerer shell.Answerer = analyzer.NewPipeline(collection, generator, analyzerConfig)

	slackConfig := slackpkg.Config{
		BotToken:  os.Getenv("SLACK_BOT_TOKEN"),
		ChannelID: os.Getenv("SLACK_CHANNEL_ID"),
	}
	if slackConfig.Enabled() {
		answerer = publishingAnswerer{next: answerer, publisher: slackpkg.NewPublisher(slackConfig)}
	}

	log.Info().
		Str("collection", collection.Name()).
		Str("source", opts.source).
		Str("embedder", opts.embedder).
		Int("topK", opts.topK).
		Int("indexed", count).
		Bool("slack", slackConfig.Enabled()).
		Msg("Configuration loaded")

	clearScreen(os.Stdout)
	fmt.Fprintln(os.Stdout, "Welcome")

	loop := &shell.Loop{
		In:        os.Stdin,
		Out:       os.Stdout,
		Answerer:  answerer,
		TopK:      opts.topK,
		Styles:    shell.StylesFor(os.Stdout),
		Retryable: analyzer.IsRetryable,
	}
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("prompt failed: %w", err)
	}

	log.Info().Msg("lograg stopped")
	return nil
}

func newEmbedder(ctx context.Context, kind string) (index.Embedder, error) {
	switch strings.ToLower(kind) {
	case "gemini":
		geminiKey := os.Getenv("GEMINI_API_KEY")
		if geminiKey == "" {
			log.Fatal().Msg("GEMINI_API_KEY is required for the gemini embedder")
		}
		cfg := index.DefaultGeminiConfig(geminiKey)
		if model := os.Getenv("GEMINI_EMBED_MODEL"); model != "" {
			cfg.Model = model
		}
		return index.NewGeminiEmbedder(ctx, cfg)
	case "hash", "":
		return index.NewHashEmbedder(index.DefaultHashDimension), nil
	default:
		log.Warn().Str("value", kind).Msg("Invalid EMBEDDER, defaulting to hash")
		return index.NewHashEmbedder(index.DefaultHashDimension), nil
	}
}

func newStore(opts options) (index.Store, error) {
	if opts.indexPath == "" {
		if opts.skipIngest {
			log.Warn().Msg("--skip-ingest without --index-path leaves the index empty")
		}
		return index.NewMemoryStore(), nil
	}
	return index.OpenBadgerStore(index.BadgerConfig{Path: opts.indexPath, Reset: opts.resetIndex})
}

func ingest(ctx context.Context, opts options, collection *index.Collection) error {
	existing, err := collection.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count indexed entries: %w", err)
	}
	if existing > 0 {
		log.Warn().Int("existing", existing).Msg("Index is not empty, re-ingested entries are appended under new ids")
	}

	driver := ingestor.NewDriver(parser.New(), collection, ingestor.NewSequence(uint64(existing)))
	start := time.Now()

	var stats ingestor.Stats
	switch opts.source {
	case "datadog":
		lines, err := ingestor.NewDatadogSource(datadogConfig()).Lines(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch Datadog logs: %w", err)
		}
		stats, err = driver.IngestLines(ctx, lines)
		if err != nil {
			return fmt.Errorf("ingestion failed after %d entries: %w", stats.Indexed, err)
		}
	default:
		fd, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer fd.Close()
		stats, err = driver.Ingest(ctx, fd)
		if err != nil {
			return fmt.Errorf("ingestion failed after %d entries: %w", stats.Indexed, err)
		}
	}

	log.Info().
		Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Ingestion completed")

	ingestor.WriteReport(os.Stderr, stats)
	return nil
}

func datadogConfig() ingestor.DatadogConfig {
	ddApiKey := os.Getenv("DD_API_KEY")
	ddAppKey := os.Getenv("DD_APPLICATION_KEY")
	if ddApiKey == "" || ddAppKey == "" {
		log.Fatal().Msg("DD_API_KEY and DD_APPLICATION_KEY are required for the datadog source")
	}

	cfg := ingestor.DefaultDatadogConfig(ddApiKey, ddAppKey)
	if query := os.Getenv("DD_QUERY"); query != "" {
		cfg.Query = query
	} else {
		log.Info().Msg("No DD_QUERY set, defaulting to all logs")
	}

	interval := os.Getenv("TIME_INTERVAL")
	if !ingestor.ValidTimeIntervals.Includes(interval) {
		log.Warn().Str("value", interval).Msg("Invalid TIME_INTERVAL, defaulting to ONE_DAY")
		interval = "ONE_DAY"
	}
	cfg.IntervalKey = strings.ToUpper(interval)
	return cfg
}

// publishingAnswerer mirrors successful answers to Slack. Publishing
// failures are logged and never reach the prompt.
type publishingAnswerer struct {
	next      shell.Answerer
	publisher *slackpkg.Publisher
}

func (p publishingAnswerer) Answer(ctx context.Context, question string, k int) (string, error) {
	answer, err := p.next.Answer(ctx, question, k)
	if err != nil {
		return "", err
	}
	if err := p.publisher.Publish(ctx, question, answer, time.Now()); err != nil {
		log.Err(err).Msg("Error publishing answer to Slack")
	}
	return answer, nil
}

func clearScreen(w io.Writer) {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(w, "\033[H\033[2J")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func logLevel(v string) zerolog.Level {
	if v == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
