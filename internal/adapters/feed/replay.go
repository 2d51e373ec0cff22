package feed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/courtside/internal/domain"
)

const maxLineBytes = 4 * 1024 * 1024

// ReplaySource reads newline-delimited JSON envelopes. Blank lines and lines
// starting with '#' are skipped; undecodable lines are logged and skipped.
type ReplaySource struct {
	path string
	r    io.Reader
}

// NewReplayFile replays the file at path.
func NewReplayFile(path string) *ReplaySource { return &ReplaySource{path: path} }

// NewReplayReader replays from r.
func NewReplayReader(r io.Reader) *ReplaySource { return &ReplaySource{r: r} }

// Run implements ports.EventSource.
func (s *ReplaySource) Run(ctx context.Context, out chan<- domain.Event) error {
	r := s.r
	if r == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("feed.Replay: open %q: %w", s.path, err)
		}
		defer f.Close()
		r = f
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line, skipped := 0, 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		ev, err := Decode(raw)
		if err != nil {
			skipped++
			level := slog.LevelWarn
			if errors.Is(err, ErrUnknownEvent) {
				level = slog.LevelDebug
			}
			slog.Log(ctx, level, "feed: skipping line", "line", line, "err", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("feed.Replay: line %d: %w", line, err)
	}
	slog.Debug("feed: replay finished", "lines", line, "skipped", skipped)
	return nil
}
