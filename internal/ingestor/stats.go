package ingestor

import (
	"sort"

	"github.com/ricardonunez-io/lograg/internal/fuzzy"
	"github.com/ricardonunez-io/lograg/internal/parser"
)

// maxPatternSamples bounds how many bodies are kept for pattern grouping.
const maxPatternSamples = 2000

// Stats summarizes one ingestion pass.
type Stats struct {
	Indexed   int                   `json:"indexed"`
	Skipped   int                   `json:"skipped"`
	Reasons   map[parser.Reason]int `json:"reasons"`
	ByLevel   map[string]int        `json:"byLevel"`
	ByProcess map[string]int        `json:"byProcess"`
	FirstID   uint64                `json:"firstId"`
	LastID    uint64                `json:"lastId"`
	Patterns  []fuzzy.Pattern       `json:"patterns"`

	bodies []string
}

func newStats() Stats {
	return Stats{
		Reasons:   make(map[parser.Reason]int),
		ByLevel:   make(map[string]int),
		ByProcess: make(map[string]int),
	}
}

func (s *Stats) skip(reason parser.Reason) {
	s.Skipped++
	s.Reasons[reason]++
}

func (s *Stats) record(e LogEntry) {
	if s.Indexed == 0 {
		s.FirstID = e.ID
	}
	s.LastID = e.ID
	s.Indexed++
	s.ByLevel[e.Metadata.Level]++
	s.ByProcess[e.Metadata.Process]++
	if len(s.bodies) < maxPatternSamples {
		s.bodies = append(s.bodies, e.Body)
	}
}

func (s Stats) finish() Stats {
	if len(s.bodies) > 0 {
		s.Patterns = fuzzy.Group(s.bodies)
	}
	s.bodies = nil
	return s
}

// Count is a name with its number of occurrences.
type Count struct {
	Name  string
	Count int
}

// Top returns the n most frequent keys, ties broken by name.
func Top(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
