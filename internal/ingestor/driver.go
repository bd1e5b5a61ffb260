package ingestor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ricardonunez-io/lograg/internal/lines"
	"github.com/ricardonunez-io/lograg/internal/parser"
	"github.com/rs/zerolog/log"
)

// Index is the add side of the vector index.
type Index interface {
	Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error
}

// Driver streams lines through the parser and submits accepted entries to
// the index one at a time, in input order.
type Driver struct {
	Parser *parser.Parser
	Index  Index
	Seq    *Sequence
	// MaxLineSize bounds a source line; longer lines are skipped as
	// parser.TooLong. Zero means lines.DefaultMaxSize.
	MaxLineSize int
}

func NewDriver(p *parser.Parser, idx Index, seq *Sequence) *Driver {
	if seq == nil {
		seq = NewSequence(0)
	}
	return &Driver{Parser: p, Index: idx, Seq: seq}
}

// Ingest reads r line by line until EOF.
func (d *Driver) Ingest(ctx context.Context, r io.Reader) (Stats, error) {
	stats := newStats()
	reader := lines.NewReader(r, d.MaxLineSize)

	for {
		line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, lines.ErrTooLong) {
			stats.skip(parser.TooLong)
			log.Debug().Str("reason", string(parser.TooLong)).Msg("Skipping unparseable line")
			continue
		}
		if err != nil {
			return stats.finish(), fmt.Errorf("failed to read log source: %w", err)
		}

		if err := d.ingestLine(ctx, line, &stats); err != nil {
			return stats.finish(), err
		}
	}

	return stats.finish(), nil
}

// IngestLines is Ingest over an in-memory slice.
func (d *Driver) IngestLines(ctx context.Context, lines []string) (Stats, error) {
	stats := newStats()
	for _, line := range lines {
		if err := d.ingestLine(ctx, line, &stats); err != nil {
			return stats.finish(), err
		}
	}
	return stats.finish(), nil
}

func (d *Driver) ingestLine(ctx context.Context, line string, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	md, body, reason := d.Parser.ParseDetailed(line)
	if reason != parser.Accepted {
		stats.skip(reason)
		log.Debug().Str("reason", string(reason)).Str("line", line).Msg("Skipping unparseable line")
		return nil
	}

	id := d.Seq.Next()
	entry := LogEntry{ID: id, Metadata: md, Body: body}

	err := d.Index.Add(ctx,
		[]string{strconv.FormatUint(entry.ID, 10)},
		[]string{entry.Body},
		[]map[string]any{entry.Metadata.Map()},
	)
	if err != nil {
		return fmt.Errorf("failed to index entry %d: %w", entry.ID, err)
	}

	stats.record(entry)
	return nil
}

// LogEntry is a parsed line with its assigned id. It only lives until it is
// handed to the index.
type LogEntry struct {
	ID       uint64
	Metadata parser.Metadata
	Body     string
}
