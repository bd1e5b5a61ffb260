package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultPID is assigned when a header carries no bracketed process id.
const DefaultPID = "1"

// Unpadded clock fields accept one or two digits, as syslog writers differ.
const timestampLayout = "Jan 2 15:4:5"

var (
	lineRe   = regexp.MustCompile(`^(\w+ \s*\d+ \d+:\d+:\d+) (\w+) (.*)`)
	headerRe = regexp.MustCompile(`^(.+?)\[(\d+)\]`)
)

// Metadata is the normalized header of a syslog-style line.
type Metadata struct {
	Timestamp int64  `json:"timestamp"`
	Level     string `json:"level"`
	Process   string `json:"process"`
	PID       string `json:"pid"`
}

// Map returns the flat key/value form submitted to the index. All four keys
// are always present.
func (m Metadata) Map() map[string]any {
	return map[string]any{
		"timestamp": m.Timestamp,
		"level":     m.Level,
		"process":   m.Process,
		"pid":       m.PID,
	}
}

// Time returns the timestamp as a local time.Time.
func (m Metadata) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

type Reason string

const (
	Accepted     Reason = ""
	NoMatch      Reason = "no_match"
	NoColon      Reason = "no_colon"
	BadTimestamp Reason = "bad_timestamp"
	// TooLong is recorded by readers for lines over their size limit; such
	// lines never reach the parser.
	TooLong Reason = "too_long"
)

// LineMatch is the result of the outer line grammar.
type LineMatch struct {
	Timestamp string
	Level     string
	Rest      string
}

// HeaderMatch is the result of the process header grammar.
type HeaderMatch struct {
	Process string
	PID     string
}

// MatchLine applies `<mon> <day> <HH:MM:SS> <LEVEL> <rest>` to a raw line.
func MatchLine(line string) (LineMatch, bool) {
	line = strings.TrimRight(line, "\r\n")
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return LineMatch{}, false
	}
	return LineMatch{Timestamp: m[1], Level: m[2], Rest: m[3]}, true
}

// MatchHeader extracts `<process>[<pid>]`. Headers without a bracketed id
// become the process name verbatim with DefaultPID.
func MatchHeader(header string) HeaderMatch {
	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return HeaderMatch{Process: header, PID: DefaultPID}
	}
	return HeaderMatch{Process: m[1], PID: m[2]}
}

// Parser turns raw lines into metadata and message bodies. The source format
// carries no year, so the year of Now() is injected at parse time.
type Parser struct {
	Now      func() time.Time
	Location *time.Location
}

func New() *Parser {
	return &Parser{Now: time.Now, Location: time.Local}
}

// Parse returns the metadata and body of a line, or ok=false when the line
// should be skipped.
func (p *Parser) Parse(line string) (Metadata, string, bool) {
	md, body, reason := p.ParseDetailed(line)
	return md, body, reason == Accepted
}

// ParseDetailed is Parse with the rejection reason exposed.
func (p *Parser) ParseDetailed(line string) (Metadata, string, Reason) {
	lm, ok := MatchLine(line)
	if !ok {
		return Metadata{}, "", NoMatch
	}

	header, body, found := strings.Cut(lm.Rest, ":")
	if !found {
		return Metadata{}, "", NoColon
	}

	ts, ok := p.timestamp(lm.Timestamp)
	if !ok {
		return Metadata{}, "", BadTimestamp
	}

	hm := MatchHeader(header)
	return Metadata{
		Timestamp: ts,
		Level:     lm.Level,
		Process:   hm.Process,
		PID:       hm.PID,
	}, body, Accepted
}

func (p *Parser) timestamp(raw string) (int64, bool) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	parsed, err := time.ParseInLocation(timestampLayout, strings.Join(strings.Fields(raw), " "), loc)
	if err != nil {
		return 0, false
	}

	year := now().In(loc).Year()
	t := time.Date(year, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc)
	// Feb 29 outside a leap year normalizes into March.
	if t.Month() != parsed.Month() || t.Day() != parsed.Day() {
		return 0, false
	}
	return t.Unix(), true
}

// FormatHeader renders metadata back into a compact `ts level process[pid]`
// prefix.
func FormatHeader(m Metadata) string {
	return m.Time().Format("Jan _2 15:04:05") + " " + m.Level + " " + m.Process + "[" + m.PID + "]"
}

// ParseTimestamp reads a metadata timestamp that may have been stored as any
// integer or float kind, or as a decimal string.
func ParseTimestamp(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
