package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ricardonunez-io/lograg/internal/index"
	"github.com/ricardonunez-io/lograg/internal/parser"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRetrieval marks a failed index query.
	ErrRetrieval = errors.New("log retrieval failed")
	// ErrGeneration marks a failed generation call.
	ErrGeneration = errors.New("answer generation failed")
	// ErrTimeout is joined to either of the above when a bounded call timed out.
	ErrTimeout = errors.New("external call timed out")
)

// Retriever is the query side of the vector index.
type Retriever interface {
	Query(ctx context.Context, queryTexts []string, nResults int) (index.QueryResult, error)
}

// Generator produces one completion for a conversation.
type Generator interface {
	Complete(ctx context.Context, conv Conversation) (string, error)
}

// Pipeline answers questions by retrieving similar log bodies and grounding
// a generation request on them. It keeps no state between questions.
type Pipeline struct {
	retriever Retriever
	generator Generator
	cfg       Config
}

func NewPipeline(r Retriever, g Generator, cfg Config) *Pipeline {
	return &Pipeline{retriever: r, generator: g, cfg: cfg}
}

// Answer retrieves the top k bodies for question and returns the generated
// answer verbatim. k <= 0 means DefaultTopK. An empty retrieval still
// produces an answer.
func (p *Pipeline) Answer(ctx context.Context, question string, k int) (string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	documents, err := p.retrieve(ctx, question, k)
	if err != nil {
		return "", err
	}

	if len(documents) == 0 {
		log.Warn().Str("question", question).Msg("No log entries retrieved, answering without context")
	}

	conv := BuildConversation(question, documents)

	start := time.Now()
	answer, err := p.generate(ctx, conv)
	if err != nil {
		return "", err
	}

	log.Info().
		Int("retrieved", len(documents)).
		Int("answerLength", len(answer)).
		Dur("generation", time.Since(start)).
		Msg("Question answered")

	return answer, nil
}

func (p *Pipeline) retrieve(ctx context.Context, question string, k int) ([]string, error) {
	callCtx, cancel := withTimeout(ctx, p.cfg.RetrievalTimeout)
	defer cancel()

	res, err := p.retriever.Query(callCtx, []string{question}, k)
	if err != nil {
		return nil, classify(ErrRetrieval, err)
	}
	if len(res.Documents) == 0 {
		return nil, nil
	}

	documents := res.Documents[0]
	if len(documents) > k {
		documents = documents[:k]
	}
	if !p.cfg.IncludeMetadata || len(res.Metadatas) == 0 {
		return documents, nil
	}

	annotated := make([]string, len(documents))
	for i, doc := range documents {
		annotated[i] = doc
		if i < len(res.Metadatas[0]) {
			if header, ok := metadataHeader(res.Metadatas[0][i]); ok {
				annotated[i] = header + ":" + doc
			}
		}
	}
	return annotated, nil
}

func (p *Pipeline) generate(ctx context.Context, conv Conversation) (string, error) {
	callCtx, cancel := withTimeout(ctx, p.cfg.GenerationTimeout)
	defer cancel()

	answer, err := p.generator.Complete(callCtx, conv)
	if err != nil {
		return "", classify(ErrGeneration, err)
	}
	return answer, nil
}

// IsRetryable reports whether a failed Answer may succeed if asked again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func classify(kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", kind, ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func metadataHeader(m index.Metadata) (string, bool) {
	ts, ok := parser.ParseTimestamp(m["timestamp"])
	if !ok {
		return "", false
	}
	level, _ := m["level"].(string)
	process, _ := m["process"].(string)
	pid, _ := m["pid"].(string)
	return parser.FormatHeader(parser.Metadata{Timestamp: ts, Level: level, Process: process, PID: pid}), true
}
