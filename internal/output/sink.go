package output

import (
	"encoding/json"
	"fmt"
	"io"

	"pkgsweep/internal/registry"
)

// Sink defines a destination for run output.
type Sink interface {
	Write(v any) error
	Close() error
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}

// structured implements the json and ndjson formats shared by the console,
// emit and file sinks. Callers serialize access.
type structured struct {
	w       io.Writer
	format  string // "json" | "ndjson"
	flush   bool
	results []registry.DeleteResult
}

func (s *structured) write(v any) error {
	switch s.format {
	case "json":
		if r, ok := v.(registry.DeleteResult); ok {
			s.results = append(s.results, r)
		}
		// Lifecycle events are dropped in aggregate mode.
		return nil
	case "ndjson":
		var e Event
		switch t := v.(type) {
		case Event:
			e = t
		case registry.DeleteResult:
			e = eventFromResult(t)
		default:
			return nil
		}
		if err := json.NewEncoder(s.w).Encode(e); err != nil {
			return err
		}
		if s.flush {
			return flushIfPossible(s.w)
		}
		return nil
	default:
		return fmt.Errorf("unsupported structured format: %s", s.format)
	}
}

func (s *structured) close() error {
	if s.format != "json" {
		return nil
	}
	results := s.results
	if results == nil {
		results = []registry.DeleteResult{}
	}
	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	if s.flush {
		return flushIfPossible(s.w)
	}
	return nil
}
