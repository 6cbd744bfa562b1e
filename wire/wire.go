// Package wire encodes and decodes the control-plane messages exchanged
// with a scheduler instance: the global install/get-schedule request
// pair and the per-domain put/get-info request pair. Only the semantics
// of these messages are defined here — the transport carrying them
// across a trust boundary is left to the caller.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/arinc653/sched653"
)

// MaxEntries and MaxProviders mirror the core package's compile-time
// bounds so the wire format and the in-memory model never disagree.
const (
	MaxEntries   = sched653.MaxEntries
	MaxProviders = sched653.MaxProviders
)

// providerWire is the fixed on-wire layout of one provider tuple.
type providerWire struct {
	DomHandle [16]byte
	VcpuID    int32
}

// entryWire is the fixed on-wire layout of one schedule entry header;
// providers follow immediately after, NumProviders of them.
type entryWire struct {
	ServiceID    int32
	Runtime      int64 // nanoseconds
	NumProviders uint32
}

// scheduleHeader is the fixed on-wire layout preceding the entry list.
// Reserved leaves a real transport room to round up to its own
// alignment without this package inventing implicit padding rules of
// its own.
type scheduleHeader struct {
	MajorFrame int64 // nanoseconds
	NumEntries uint32
	Reserved   [4]byte
}

// unsetByte fills uninitialized trailing entries of a "get" buffer:
// entries beyond NumEntries are packed with 0xFF so a reader can tell
// trailing garbage from real data by NumEntries alone, never by
// scanning for a sentinel value inside a real entry.
const unsetByte = 0xFF

// EncodeInstallRequest serializes spec into the install-schedule wire
// format. The error it returns is a plain shape/bounds error; a caller
// on the control plane proper is expected to translate it into a
// *sched653.ScheduleError if it wants the scheduler's own error
// taxonomy.
func EncodeInstallRequest(spec sched653.ScheduleSpec) ([]byte, error) {
	if len(spec.Entries) > MaxEntries {
		return nil, fmt.Errorf("wire: num_entries %d exceeds MaxEntries %d", len(spec.Entries), MaxEntries)
	}
	for i, e := range spec.Entries {
		if len(e.Providers) > MaxProviders {
			return nil, fmt.Errorf("wire: entry %d num_providers %d exceeds MaxProviders %d", i, len(e.Providers), MaxProviders)
		}
	}

	buf := &bytes.Buffer{}
	hdr := scheduleHeader{MajorFrame: int64(spec.MajorFrame), NumEntries: uint32(len(spec.Entries))}
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("wire: write header: %w", err)
	}

	for _, e := range spec.Entries {
		ew := entryWire{ServiceID: e.ServiceID, Runtime: int64(e.Runtime), NumProviders: uint32(len(e.Providers))}
		if err := binary.Write(buf, binary.LittleEndian, ew); err != nil {
			return nil, fmt.Errorf("wire: write entry: %w", err)
		}
		for _, p := range e.Providers {
			pw := providerWire{DomHandle: p.DomHandle, VcpuID: p.VcpuID}
			if err := binary.Write(buf, binary.LittleEndian, pw); err != nil {
				return nil, fmt.Errorf("wire: write provider: %w", err)
			}
		}
	}

	return buf.Bytes(), nil
}

// DecodeInstallRequest parses the install-schedule wire format back into
// a ScheduleSpec. It does not itself enforce feasibility — that is
// sched653.Instance.InstallSchedule's job — only shape and bounds.
func DecodeInstallRequest(data []byte) (sched653.ScheduleSpec, error) {
	r := bytes.NewReader(data)

	var hdr scheduleHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return sched653.ScheduleSpec{}, fmt.Errorf("wire: read header: %w", err)
	}
	if hdr.NumEntries > MaxEntries {
		return sched653.ScheduleSpec{}, fmt.Errorf("wire: num_entries %d exceeds MaxEntries %d", hdr.NumEntries, MaxEntries)
	}

	spec := sched653.ScheduleSpec{
		MajorFrame: time.Duration(hdr.MajorFrame),
		Entries:    make([]sched653.EntrySpec, hdr.NumEntries),
	}

	for i := uint32(0); i < hdr.NumEntries; i++ {
		var ew entryWire
		if err := binary.Read(r, binary.LittleEndian, &ew); err != nil {
			return sched653.ScheduleSpec{}, fmt.Errorf("wire: read entry %d: %w", i, err)
		}
		if ew.NumProviders > MaxProviders {
			return sched653.ScheduleSpec{}, fmt.Errorf("wire: entry %d num_providers %d exceeds MaxProviders %d", i, ew.NumProviders, MaxProviders)
		}
		es := sched653.EntrySpec{
			ServiceID: ew.ServiceID,
			Runtime:   time.Duration(ew.Runtime),
			Providers: make([]sched653.ProviderSpec, ew.NumProviders),
		}
		for j := uint32(0); j < ew.NumProviders; j++ {
			var pw providerWire
			if err := binary.Read(r, binary.LittleEndian, &pw); err != nil {
				return sched653.ScheduleSpec{}, fmt.Errorf("wire: read provider %d of entry %d: %w", j, i, err)
			}
			es.Providers[j] = sched653.ProviderSpec{DomHandle: pw.DomHandle, VcpuID: pw.VcpuID}
		}
		spec.Entries[i] = es
	}

	return spec, nil
}

// EncodeGetResponse serializes spec into a fixed MaxEntries-slot buffer,
// filling unused slots with 0xFF, so a reader can distinguish trailing
// garbage from real entries purely by NumEntries.
func EncodeGetResponse(spec sched653.ScheduleSpec) ([]byte, error) {
	body, err := EncodeInstallRequest(spec)
	if err != nil {
		return nil, err
	}
	// Pad the unused entry slots with 0xFF so the fixed-capacity wire
	// buffer always has the same length regardless of how many entries
	// are actually populated.
	unused := MaxEntries - len(spec.Entries)
	if unused > 0 {
		padding := make([]byte, unused*entryStride(MaxProviders))
		for i := range padding {
			padding[i] = unsetByte
		}
		body = append(body, padding...)
	}
	return body, nil
}

func entryStride(numProviders int) int {
	return binarySize(entryWire{}) + numProviders*binarySize(providerWire{})
}

func binarySize(v any) int {
	n := binary.Size(v)
	if n < 0 {
		panic(fmt.Sprintf("wire: binary.Size rejected %T", v))
	}
	return n
}

// domainInfoWire is the fixed on-wire layout of a per-domain
// put-info/get-info exchange: the handle identifying the domain, its
// parent domain id, and its healthy flag. Primary is never carried on
// the wire — it is always derived locally from (Parent == self).
type domainInfoWire struct {
	DomHandle [16]byte
	Parent    int32
	Healthy   uint8
	_         [3]byte // alignment padding, always zero
}

// EncodePutDomainInfo serializes a put-info request: the target domain's
// handle plus the new DomainParamsSpec.
func EncodePutDomainInfo(handle [16]byte, spec sched653.DomainParamsSpec) []byte {
	buf := &bytes.Buffer{}
	diw := domainInfoWire{DomHandle: handle, Parent: int32(spec.Parent), Healthy: boolToByte(spec.Healthy)}
	// binary.Write never fails on a fixed-size struct written to a
	// bytes.Buffer; the error is only possible for unsupported field
	// types, which domainInfoWire does not have.
	_ = binary.Write(buf, binary.LittleEndian, diw)
	return buf.Bytes()
}

// DecodePutDomainInfo parses a put-info request back into its handle and
// DomainParamsSpec.
func DecodePutDomainInfo(data []byte) (handle [16]byte, spec sched653.DomainParamsSpec, err error) {
	var diw domainInfoWire
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &diw); err != nil {
		return handle, spec, fmt.Errorf("wire: read domain info: %w", err)
	}
	return diw.DomHandle, sched653.DomainParamsSpec{Parent: sched653.DomID(diw.Parent), Healthy: diw.Healthy != 0}, nil
}

// EncodeGetDomainInfoResponse serializes a get-info response: the
// queried domain's handle plus its current DomainParams.
func EncodeGetDomainInfoResponse(handle [16]byte, params sched653.DomainParams) []byte {
	buf := &bytes.Buffer{}
	diw := domainInfoWire{DomHandle: handle, Parent: int32(params.Parent), Healthy: boolToByte(params.Healthy)}
	_ = binary.Write(buf, binary.LittleEndian, diw)
	return buf.Bytes()
}

// DecodeGetDomainInfoResponse parses a get-info response back into its
// handle and DomainParams.
func DecodeGetDomainInfoResponse(data []byte) (handle [16]byte, params sched653.DomainParams, err error) {
	var diw domainInfoWire
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &diw); err != nil {
		return handle, params, fmt.Errorf("wire: read domain info: %w", err)
	}
	return diw.DomHandle, sched653.DomainParams{Parent: sched653.DomID(diw.Parent), Healthy: diw.Healthy != 0}, nil
}

func boolToByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

