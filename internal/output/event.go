package output

import (
	"time"

	"pkgsweep/internal/registry"
)

// Event types.
const (
	EventRunStarted   = "run.started"
	EventFetchDone    = "fetch.finished"
	EventDeleteResult = "delete.result"
	EventRunFinished  = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - fetch.finished (one per package type / visibility pair)
// - delete.result (one per matched package, nested "result" object)
// - run.finished (nested "summary" object)
//
// JSON mode remains an aggregate of registry.DeleteResult values.
type Event struct {
	Type     string                 `json:"type"`
	RunID    string                 `json:"run_id,omitempty"`
	Keyword  string                 `json:"keyword,omitempty"`
	Keys     int                    `json:"keys,omitempty"`
	Key      *registry.FetchKey     `json:"key,omitempty"`
	Packages int                    `json:"packages,omitempty"`
	Pages    int                    `json:"pages,omitempty"`
	Status   int                    `json:"status,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Result   *registry.DeleteResult `json:"result,omitempty"`
	Summary  *Summary               `json:"summary,omitempty"`
}

// Summary describes one completed run. Partial failures are counted here;
// they do not change the exit status.
type Summary struct {
	RunID      string                 `json:"run_id"`
	Keyword    string                 `json:"keyword"`
	DryRun     bool                   `json:"dry_run,omitempty"`
	Keys       int                    `json:"keys"`
	Listed     int                    `json:"listed"`
	ListErrors int                    `json:"list_errors"`
	Matched    int                    `json:"matched"`
	Deleted    int                    `json:"deleted"`
	Failed     int                    `json:"failed"`
	Planned    int                    `json:"planned,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Duration   time.Duration          `json:"duration_ns"`
	RateLimit  *registry.RateSnapshot `json:"rate_limit,omitempty"`
}

func eventFromResult(r registry.DeleteResult) Event {
	return Event{Type: EventDeleteResult, Result: &r}
}

// FetchEvent converts a fetch result to its lifecycle event.
func FetchEvent(res registry.FetchResult) Event {
	key := res.Key
	e := Event{Type: EventFetchDone, Key: &key, Packages: len(res.Packages), Pages: res.Pages}
	if res.Err != nil {
		e.Status = res.Err.StatusCode
		e.Error = res.Err.Error()
	}
	return e
}
