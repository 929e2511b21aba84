package j1939

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSegmentRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 6, 7, 8, 14, 100, 1000} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}

		segments := Segment(payload, PGNVehiclePosition)

		wantTotal := (size + SegmentPayloadSize - 1) / SegmentPayloadSize
		if len(segments) != wantTotal+1 {
			t.Fatalf("size %d: got %d segments, want %d", size, len(segments), wantTotal+1)
		}
		if segments[0].Sequence != 0 || segments[0].TotalSegments != wantTotal {
			t.Errorf("size %d: bad connection management segment %+v", size, segments[0])
		}
		if len(segments[0].Data) != 0 {
			t.Errorf("size %d: connection management segment carries payload", size)
		}
		for i, seg := range segments[1:] {
			if seg.Sequence != i+1 {
				t.Errorf("size %d: segment %d has sequence %d", size, i+1, seg.Sequence)
			}
			if len(seg.Data) > SegmentPayloadSize {
				t.Errorf("size %d: segment %d carries %d bytes", size, i+1, len(seg.Data))
			}
		}

		ptrs := make([]*TransportSegment, len(segments))
		for i := range segments {
			ptrs[i] = &segments[i]
		}
		got, err := Reassemble(ptrs)
		if err != nil {
			t.Fatalf("size %d: Reassemble: %v", size, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("size %d: reassembled payload differs", size)
		}
	}
}

func TestSegmentEmptyPayload(t *testing.T) {
	segments := Segment(nil, PGNEngineController)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want only connection management", len(segments))
	}
	if segments[0].TotalSegments != 0 {
		t.Errorf("TotalSegments = %d, want 0", segments[0].TotalSegments)
	}
}

func TestReassembleMissingSegment(t *testing.T) {
	segments := Segment(make([]byte, 20), PGNEngineController)
	ptrs := make([]*TransportSegment, len(segments))
	for i := range segments {
		ptrs[i] = &segments[i]
	}
	ptrs[2] = nil

	_, err := Reassemble(ptrs)
	var missing *SegmentMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want SegmentMissingError", err)
	}
	if missing.Index != 2 {
		t.Errorf("Index = %d, want 2", missing.Index)
	}
}

func TestReassembleTruncatedBelowAnnouncedTotal(t *testing.T) {
	segments := Segment(make([]byte, 21), PGNEngineController) // 3 data segments

	// All entries non-nil but the last data segment never handed over.
	ptrs := []*TransportSegment{&segments[0], &segments[1], &segments[2]}

	_, err := Reassemble(ptrs)
	var missing *SegmentMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want SegmentMissingError for truncated input", err)
	}
	if missing.Index != 3 {
		t.Errorf("Index = %d, want 3", missing.Index)
	}
}

func TestReassembleToleratesMissingConnectionManagement(t *testing.T) {
	segments := Segment([]byte("hello world"), PGNEngineController)
	ptrs := make([]*TransportSegment, len(segments))
	for i := range segments {
		ptrs[i] = &segments[i]
	}
	ptrs[0] = nil

	got, err := Reassemble(ptrs)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("payload = %q", got)
	}
}

func TestReassembleOrdersBySequence(t *testing.T) {
	segments := Segment([]byte("abcdefghijklmn"), PGNEngineController)
	// Deliver data segments swapped.
	ptrs := []*TransportSegment{&segments[0], &segments[2], &segments[1]}

	got, err := Reassemble(ptrs)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(got) != "abcdefghijklmn" {
		t.Errorf("payload = %q, want sequence order regardless of arrival order", got)
	}
}

func TestCollectorWaitForSegment(t *testing.T) {
	c := NewSegmentCollector()

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Deliver(TransportSegment{Sequence: 3, Data: []byte("late")})
	}()

	seg, err := c.WaitForSegment(3, time.Second)
	if err != nil {
		t.Fatalf("WaitForSegment: %v", err)
	}
	if string(seg.Data) != "late" {
		t.Errorf("Data = %q", seg.Data)
	}

	// Already received: returns immediately.
	seg, err = c.WaitForSegment(3, time.Millisecond)
	if err != nil || seg == nil {
		t.Fatalf("second wait: %v", err)
	}
}

func TestCollectorWaitTimeout(t *testing.T) {
	c := NewSegmentCollector()

	_, err := c.WaitForSegment(5, 20*time.Millisecond)
	var timeout *SegmentTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want SegmentTimeoutError", err)
	}
	if timeout.Sequence != 5 {
		t.Errorf("Sequence = %d, want 5", timeout.Sequence)
	}
}

func TestCollectorSegments(t *testing.T) {
	payload := []byte("0123456789abcdef")
	segments := Segment(payload, PGNEngineController)

	c := NewSegmentCollector()
	for _, seg := range segments {
		c.Deliver(seg)
	}

	got, err := Reassemble(c.Segments())
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}
