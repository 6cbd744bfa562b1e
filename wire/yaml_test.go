package wire

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleDocument(t *testing.T) []byte {
	t.Helper()
	domA, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("uuid.NewRandom: %v", err)
	}
	domB, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("uuid.NewRandom: %v", err)
	}
	return []byte(`
major_frame: 30ms
entries:
  - service_id: 1
    runtime: 10ms
    providers:
      - dom_handle: ` + domA.String() + `
        vcpu_id: 0
      - dom_handle: ` + domB.String() + `
        vcpu_id: 1
  - service_id: 2
    runtime: 20ms
    providers:
      - dom_handle: ` + domB.String() + `
        vcpu_id: 0
`)
}

func TestParseScheduleDocument(t *testing.T) {
	spec, err := ParseScheduleDocument(sampleDocument(t))
	if err != nil {
		t.Fatalf("ParseScheduleDocument: %v", err)
	}
	if spec.MajorFrame != 30*time.Millisecond {
		t.Fatalf("MajorFrame = %s, want 30ms", spec.MajorFrame)
	}
	if len(spec.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(spec.Entries))
	}
	if spec.Entries[0].Runtime != 10*time.Millisecond {
		t.Fatalf("Entries[0].Runtime = %s, want 10ms", spec.Entries[0].Runtime)
	}
	if len(spec.Entries[0].Providers) != 2 {
		t.Fatalf("len(Entries[0].Providers) = %d, want 2", len(spec.Entries[0].Providers))
	}
}

func TestParseRenderRoundtrip(t *testing.T) {
	spec, err := ParseScheduleDocument(sampleDocument(t))
	if err != nil {
		t.Fatalf("ParseScheduleDocument: %v", err)
	}

	rendered, err := RenderScheduleDocument(spec)
	if err != nil {
		t.Fatalf("RenderScheduleDocument: %v", err)
	}

	roundtripped, err := ParseScheduleDocument(rendered)
	if err != nil {
		t.Fatalf("ParseScheduleDocument(rendered): %v", err)
	}
	if roundtripped.MajorFrame != spec.MajorFrame {
		t.Fatalf("MajorFrame = %s, want %s", roundtripped.MajorFrame, spec.MajorFrame)
	}
	if len(roundtripped.Entries) != len(spec.Entries) {
		t.Fatalf("len(Entries) = %d, want %d", len(roundtripped.Entries), len(spec.Entries))
	}
	for i, e := range roundtripped.Entries {
		want := spec.Entries[i]
		if e.ServiceID != want.ServiceID || e.Runtime != want.Runtime {
			t.Fatalf("entry %d = %+v, want %+v", i, e, want)
		}
		for j, p := range e.Providers {
			if p != want.Providers[j] {
				t.Fatalf("entry %d provider %d = %+v, want %+v", i, j, p, want.Providers[j])
			}
		}
	}
}

func TestParseScheduleDocumentRejectsMalformedDuration(t *testing.T) {
	data := []byte(`
major_frame: not-a-duration
entries: []
`)
	if _, err := ParseScheduleDocument(data); err == nil {
		t.Fatal("ParseScheduleDocument(malformed major_frame) = nil, want an error")
	}
}

func TestParseScheduleDocumentRejectsMalformedHandle(t *testing.T) {
	data := []byte(`
major_frame: 10ms
entries:
  - service_id: 1
    runtime: 10ms
    providers:
      - dom_handle: not-a-uuid
        vcpu_id: 0
`)
	_, err := ParseScheduleDocument(data)
	if err == nil {
		t.Fatal("ParseScheduleDocument(malformed dom_handle) = nil, want an error")
	}
	if !strings.Contains(err.Error(), "dom_handle") {
		t.Fatalf("error = %q, want it to name dom_handle", err)
	}
}

func TestParseScheduleDocumentRejectsMalformedYAML(t *testing.T) {
	if _, err := ParseScheduleDocument([]byte("{not: [valid")); err == nil {
		t.Fatal("ParseScheduleDocument(malformed YAML) = nil, want an error")
	}
}
