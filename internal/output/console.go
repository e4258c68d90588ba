package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"pkgsweep/internal/registry"
)

// ConsoleSink renders delete results for a human (text) or a pipe (json,
// ndjson).
type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	enc             *structured
	allowedStatuses map[registry.DeleteStatus]bool
	colors          map[registry.DeleteStatus]*color.Color
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
		enc:    &structured{w: w, format: format, flush: true},
		colors: statusColors(isTerminal(w)),
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[registry.DeleteStatus]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[registry.DeleteStatus(strings.ToUpper(st))] = true
		}
	}

	return s
}

func statusColors(enabled bool) map[registry.DeleteStatus]*color.Color {
	m := map[registry.DeleteStatus]*color.Color{
		registry.DeleteStatusDeleted: color.New(color.FgGreen, color.Bold),
		registry.DeleteStatusFailed:  color.New(color.FgRed, color.Bold),
		registry.DeleteStatusPlanned: color.New(color.FgYellow),
	}
	for _, c := range m {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return m
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(registry.DeleteResult); ok && !s.allowedStatuses[r.Status] {
			return nil
		}
	}

	switch s.format {
	case "json", "ndjson":
		return s.enc.write(v)
	case "text":
		return s.writeText(v)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(v any) error {
	r, ok := v.(registry.DeleteResult)
	if !ok {
		// Lifecycle events are logged, not printed, in text mode.
		return nil
	}
	tag := fmt.Sprintf("[%s]", r.Status)
	if c, ok := s.colors[r.Status]; ok {
		tag = c.Sprint(tag)
	}
	line := fmt.Sprintf("%s %s %s", tag, r.Package.Type, r.Package.Name)
	if r.Status == registry.DeleteStatusFailed {
		line += " - " + failureDetail(r)
	}
	if _, err := fmt.Fprintln(s.writer, line); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}

func failureDetail(r registry.DeleteResult) string {
	switch {
	case r.StatusCode != 0 && r.Message != "":
		return fmt.Sprintf("%d: %s", r.StatusCode, r.Message)
	case r.StatusCode != 0:
		return fmt.Sprintf("%d", r.StatusCode)
	default:
		return r.Message
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "text", "ndjson":
		return nil
	case "json":
		return s.enc.close()
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}
