package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"pkgsweep/internal/registry"
)

// ReportSink writes a Markdown summary of the run on Close.
type ReportSink struct {
	path    string
	file    *os.File
	mu      sync.Mutex
	results []registry.DeleteResult
	fetches []Event
	summary *Summary
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case registry.DeleteResult:
		s.results = append(s.results, t)
	case Event:
		switch t.Type {
		case EventFetchDone:
			s.fetches = append(s.fetches, t)
		case EventRunFinished:
			s.summary = t.Summary
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(renderReport(s.summary, s.fetches, s.results))
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func renderReport(sum *Summary, fetches []Event, results []registry.DeleteResult) string {
	var b strings.Builder
	b.WriteString("# Package Sweep Report\n\n")

	if sum != nil {
		b.WriteString("| | |\n|---|---|\n")
		fmt.Fprintf(&b, "| Run | `%s` |\n", sum.RunID)
		fmt.Fprintf(&b, "| Keyword | `%s` |\n", sum.Keyword)
		if sum.DryRun {
			b.WriteString("| Mode | dry run |\n")
		}
		fmt.Fprintf(&b, "| Fetch keys | %d |\n", sum.Keys)
		fmt.Fprintf(&b, "| Listed | %d |\n", sum.Listed)
		fmt.Fprintf(&b, "| Matched | %d |\n", sum.Matched)
		fmt.Fprintf(&b, "| Deleted | %d |\n", sum.Deleted)
		fmt.Fprintf(&b, "| Failed | %d |\n", sum.Failed)
		if sum.Planned > 0 {
			fmt.Fprintf(&b, "| Planned | %d |\n", sum.Planned)
		}
		fmt.Fprintf(&b, "| Duration | %s |\n", sum.Duration.Round(time.Millisecond))
		if rl := sum.RateLimit; rl != nil && rl.Observed {
			fmt.Fprintf(&b, "| Rate limit remaining | %d / %d |\n", rl.Remaining, rl.Limit)
		}
		if sum.Error != "" {
			fmt.Fprintf(&b, "\n> Run error: %s\n", sum.Error)
		}
		b.WriteString("\n")
	}

	var listErrs []Event
	for _, f := range fetches {
		if f.Error != "" {
			listErrs = append(listErrs, f)
		}
	}
	if len(listErrs) > 0 {
		b.WriteString("## Listing errors\n\n")
		b.WriteString("| Type | Visibility | Status | Collected | Error |\n|---|---|---|---|---|\n")
		for _, f := range listErrs {
			var typ, vis string
			if f.Key != nil {
				typ, vis = f.Key.PackageType, f.Key.Visibility
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n", typ, vis, f.Status, f.Packages, escapeCell(f.Error))
		}
		b.WriteString("\n")
	}

	byStatus := map[registry.DeleteStatus][]registry.DeleteResult{}
	for _, r := range results {
		byStatus[r.Status] = append(byStatus[r.Status], r)
	}
	section := func(title string, st registry.DeleteStatus, withDetail bool) {
		rs := byStatus[st]
		if len(rs) == 0 {
			return
		}
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Package.Type != rs[j].Package.Type {
				return rs[i].Package.Type < rs[j].Package.Type
			}
			return rs[i].Package.Name < rs[j].Package.Name
		})
		fmt.Fprintf(&b, "## %s (%d)\n\n", title, len(rs))
		for _, r := range rs {
			fmt.Fprintf(&b, "- `%s` %s", r.Package.Type, r.Package.Name)
			if withDetail {
				fmt.Fprintf(&b, ": %s", escapeCell(failureDetail(r)))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	section("Failed", registry.DeleteStatusFailed, true)
	section("Deleted", registry.DeleteStatusDeleted, false)
	section("Planned", registry.DeleteStatusPlanned, false)

	if len(results) == 0 {
		b.WriteString("No packages matched.\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
