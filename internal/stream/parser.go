package stream

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/subtitles"
)

const maxLoggedLine = 120

// Stats counts what the parser saw. Lines excludes blank lines.
type Stats struct {
	Lines   int `json:"lines"`
	Emitted int `json:"emitted"`
	Dropped int `json:"dropped"`
}

// Parser incrementally splits streamed text into lines and emits validated
// blocks in arrival order. A Parser is not safe for concurrent use.
type Parser struct {
	buf     []byte
	onBlock func(subtitles.Block)
	logger  *slog.Logger
	stats   Stats
}

// Option customizes a Parser.
type Option func(*Parser)

// WithLogger routes drop warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser returns a parser that calls onBlock once per valid record.
func NewParser(onBlock func(subtitles.Block), opts ...Option) *Parser {
	p := &Parser{onBlock: onBlock, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Write appends chunk to the buffer and dispatches every complete line.
func (p *Parser) Write(chunk string) {
	if chunk == "" {
		return
	}
	p.buf = append(p.buf, chunk...)
	start := 0
	for {
		idx := indexNewline(p.buf[start:])
		if idx < 0 {
			break
		}
		p.dispatch(p.buf[start : start+idx])
		start += idx + 1
	}
	if start > 0 {
		p.buf = append(p.buf[:0], p.buf[start:]...)
	}
}

// Flush processes any remainder left after the final newline. It is a no-op
// when the remainder is blank, and safe to call more than once.
func (p *Parser) Flush() {
	if len(p.buf) == 0 {
		return
	}
	rest := p.buf
	p.buf = nil
	p.dispatch(rest)
}

// Pending reports the number of buffered bytes not yet terminated by a newline.
func (p *Parser) Pending() int {
	return len(p.buf)
}

// Stats returns the running counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

func (p *Parser) dispatch(raw []byte) {
	line := strings.TrimSpace(string(raw))
	if line == "" {
		return
	}
	p.stats.Lines++
	block, err := subtitles.DecodeBlock([]byte(line))
	if err != nil {
		err = services.Wrap(services.ErrParse, "stream", "decode line", "", err)
		p.stats.Dropped++
		logging.WarnWithContext(p.logger, "subtitle line dropped", "line_dropped",
			logging.String("reason", err.Error()),
			logging.String("line", truncate(line, maxLoggedLine)),
			logging.Int("lines_dropped", p.stats.Dropped),
			logging.String(logging.FieldErrorHint, "model output strayed from one JSON object per line"),
			logging.String(logging.FieldImpact, "line skipped; later lines are still processed"),
		)
		return
	}
	p.stats.Emitted++
	if p.onBlock != nil {
		p.onBlock(block)
	}
}

func indexNewline(b []byte) int {
	for i, c := range b {
		if c == '\n' {
			return i
		}
	}
	return -1
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
