package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pkgsweep/internal/registry"
)

func sampleResult(status registry.DeleteStatus) registry.DeleteResult {
	r := registry.DeleteResult{
		Package: registry.Package{Name: "com.acme.decoder", Type: "maven"},
		Status:  status,
	}
	if status == registry.DeleteStatusFailed {
		r.StatusCode = 404
		r.Message = "Package not found."
	}
	return r
}

func TestConsoleSink_Text(t *testing.T) {
	tests := []struct {
		name   string
		input  registry.DeleteResult
		expect string
	}{
		{"deleted", sampleResult(registry.DeleteStatusDeleted), "[DELETED] maven com.acme.decoder\n"},
		{"planned", sampleResult(registry.DeleteStatusPlanned), "[PLANNED] maven com.acme.decoder\n"},
		{"failed", sampleResult(registry.DeleteStatusFailed), "[FAILED] maven com.acme.decoder - 404: Package not found.\n"},
		{
			name: "failed without status",
			input: registry.DeleteResult{
				Package: registry.Package{Name: "n", Type: "npm"},
				Status:  registry.DeleteStatusFailed,
				Message: "registry request failed: dial tcp: refused",
			},
			expect: "[FAILED] npm n - registry request failed: dial tcp: refused\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, "text", nil)
			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write() error: %v", err)
			}
			if err := sink.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}
			if buf.String() != tt.expect {
				t.Fatalf("got %q, want %q", buf.String(), tt.expect)
			}
		})
	}
}

func TestConsoleSink_TextIgnoresEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)
	if err := sink.Write(Event{Type: EventRunStarted, RunID: "r"}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestConsoleSink_Filtering(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          registry.DeleteResult
		shouldWrite    bool
	}{
		{"text no filter", "text", nil, sampleResult(registry.DeleteStatusDeleted), true},
		{"text failed only drops deleted", "text", []string{"failed"}, sampleResult(registry.DeleteStatusDeleted), false},
		{"text failed only keeps failed", "text", []string{"FAILED"}, sampleResult(registry.DeleteStatusFailed), true},
		{"json failed only drops planned", "json", []string{"FAILED"}, sampleResult(registry.DeleteStatusPlanned), false},
		{"json failed only keeps failed", "json", []string{"FAILED"}, sampleResult(registry.DeleteStatusFailed), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, tt.format, tt.filterStatuses)
			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write() error: %v", err)
			}
			if err := sink.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}

			wrote := strings.Contains(buf.String(), "com.acme.decoder")
			if wrote != tt.shouldWrite {
				t.Fatalf("wrote = %v, want %v; output %q", wrote, tt.shouldWrite, buf.String())
			}
		})
	}
}

func TestConsoleSink_JSONAggregates(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)
	_ = sink.Write(Event{Type: EventRunStarted})
	_ = sink.Write(sampleResult(registry.DeleteStatusDeleted))
	_ = sink.Write(sampleResult(registry.DeleteStatusFailed))
	if buf.Len() != 0 {
		t.Fatalf("json mode wrote before Close: %q", buf.String())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	var got []registry.DeleteResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v; output %q", err, buf.String())
	}
	if len(got) != 2 || got[1].Status != registry.DeleteStatusFailed || got[1].StatusCode != 404 {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestConsoleSink_JSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("got %q, want []", buf.String())
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	sink := NewConsoleSink(&bytes.Buffer{}, "yaml", nil)
	if err := sink.Write(sampleResult(registry.DeleteStatusDeleted)); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
