package wire

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arinc653/sched653"
)

// ScheduleDocument is the human-authored YAML shape for a schedule
// table, meant to be hand-edited and checked into a repo rather than
// assembled on the wire. Durations are strings parsed by time.ParseDuration
// ("10ms", "1.5s") so an author never has to think in nanoseconds.
type ScheduleDocument struct {
	MajorFrame string     `yaml:"major_frame"`
	Entries    []EntryDoc `yaml:"entries"`
}

// EntryDoc is one schedule entry in a ScheduleDocument.
type EntryDoc struct {
	ServiceID int32         `yaml:"service_id"`
	Runtime   string        `yaml:"runtime"`
	Providers []ProviderDoc `yaml:"providers"`
}

// ProviderDoc is one candidate provider in an EntryDoc, ordered
// primary-first. DomHandle is the domain's handle rendered as a
// canonical UUID string.
type ProviderDoc struct {
	DomHandle string `yaml:"dom_handle"`
	VcpuID    int32  `yaml:"vcpu_id"`
}

// ParseScheduleDocument parses a YAML schedule document into a
// ScheduleSpec. It does not validate feasibility — InstallSchedule does
// that — only that every field has the right shape.
func ParseScheduleDocument(data []byte) (sched653.ScheduleSpec, error) {
	var doc ScheduleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return sched653.ScheduleSpec{}, fmt.Errorf("wire: parse schedule document: %w", err)
	}
	return doc.toSpec()
}

func (doc ScheduleDocument) toSpec() (sched653.ScheduleSpec, error) {
	majorFrame, err := time.ParseDuration(doc.MajorFrame)
	if err != nil {
		return sched653.ScheduleSpec{}, fmt.Errorf("wire: major_frame: %w", err)
	}

	spec := sched653.ScheduleSpec{MajorFrame: majorFrame, Entries: make([]sched653.EntrySpec, len(doc.Entries))}
	for i, ed := range doc.Entries {
		runtime, err := time.ParseDuration(ed.Runtime)
		if err != nil {
			return sched653.ScheduleSpec{}, fmt.Errorf("wire: entry %d: runtime: %w", i, err)
		}

		providers := make([]sched653.ProviderSpec, len(ed.Providers))
		for j, pd := range ed.Providers {
			handle, err := sched653.ParseHandle(pd.DomHandle)
			if err != nil {
				return sched653.ScheduleSpec{}, fmt.Errorf("wire: entry %d: provider %d: dom_handle: %w", i, j, err)
			}
			providers[j] = sched653.ProviderSpec{DomHandle: handle, VcpuID: pd.VcpuID}
		}

		spec.Entries[i] = sched653.EntrySpec{ServiceID: ed.ServiceID, Runtime: runtime, Providers: providers}
	}
	return spec, nil
}

// RenderScheduleDocument renders spec back into the YAML document shape,
// the inverse of ParseScheduleDocument, useful for a "get" CLI command
// that wants to show an operator-editable file rather than raw bytes.
func RenderScheduleDocument(spec sched653.ScheduleSpec) ([]byte, error) {
	doc := ScheduleDocument{MajorFrame: spec.MajorFrame.String(), Entries: make([]EntryDoc, len(spec.Entries))}
	for i, es := range spec.Entries {
		providers := make([]ProviderDoc, len(es.Providers))
		for j, ps := range es.Providers {
			providers[j] = ProviderDoc{DomHandle: ps.DomHandle.String(), VcpuID: ps.VcpuID}
		}
		doc.Entries[i] = EntryDoc{ServiceID: es.ServiceID, Runtime: es.Runtime.String(), Providers: providers}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("wire: render schedule document: %w", err)
	}
	return out, nil
}
