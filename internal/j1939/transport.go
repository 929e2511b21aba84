package j1939

import (
	"fmt"
	"sync"
	"time"
)

// SegmentPayloadSize is the number of payload bytes carried by each data
// segment. Segment 0 is connection management only and carries no payload.
const SegmentPayloadSize = 7

// TransportSegment is one frame of a segmented payload. Sequence 0 is the
// connection-management segment recording the total data segment count;
// sequences 1..N carry up to SegmentPayloadSize bytes each. Concatenating
// segments 1..N in sequence order reproduces the original payload exactly.
type TransportSegment struct {
	Sequence      int
	TotalSegments int
	PGN           uint32
	Data          []byte
}

// SegmentMissingError reports the first absent data segment during
// reassembly.
type SegmentMissingError struct {
	Index int
}

func (e *SegmentMissingError) Error() string {
	return fmt.Sprintf("transport: segment %d missing", e.Index)
}

// SegmentTimeoutError reports that a segment did not arrive within the
// bounded wait. Callers must treat it as transport failure, never as
// silent success.
type SegmentTimeoutError struct {
	Sequence int
	Timeout  time.Duration
}

func (e *SegmentTimeoutError) Error() string {
	return fmt.Sprintf("transport: segment %d not received within %s", e.Sequence, e.Timeout)
}

// Segment splits a payload into ordered transport segments. The result
// always starts with the connection-management segment (sequence 0), even
// for an empty payload, followed by ceil(len(payload)/7) data segments.
func Segment(payload []byte, pgn uint32) []TransportSegment {
	total := (len(payload) + SegmentPayloadSize - 1) / SegmentPayloadSize

	segments := make([]TransportSegment, 0, total+1)
	segments = append(segments, TransportSegment{
		Sequence:      0,
		TotalSegments: total,
		PGN:           pgn,
	})

	for i := 0; i < total; i++ {
		start := i * SegmentPayloadSize
		end := start + SegmentPayloadSize
		if end > len(payload) {
			end = len(payload)
		}
		segments = append(segments, TransportSegment{
			Sequence:      i + 1,
			TotalSegments: total,
			PGN:           pgn,
			Data:          append([]byte(nil), payload[start:end]...),
		})
	}

	return segments
}

// Reassemble rebuilds the original payload from segments ordered by slice
// index. A nil entry at any index >= 1 fails with SegmentMissingError for
// the first absent index; index 0 absent is tolerated since the
// connection-management segment carries no payload data. When the
// connection-management segment is present, its announced total bounds the
// reassembly: fewer data segments than announced is a missing-segment
// failure, never silent partial data. Data segments are concatenated in
// sequence order regardless of arrival order.
func Reassemble(segments []*TransportSegment) ([]byte, error) {
	announced := 0
	ordered := make([]*TransportSegment, 0, len(segments))
	for i, seg := range segments {
		if seg == nil {
			if i == 0 {
				continue
			}
			return nil, &SegmentMissingError{Index: i}
		}
		if seg.Sequence == 0 {
			announced = seg.TotalSegments
			continue
		}
		ordered = append(ordered, seg)
	}

	// Order by sequence number, not arrival order.
	byseq := make(map[int]*TransportSegment, len(ordered))
	maxSeq := announced
	for _, seg := range ordered {
		byseq[seg.Sequence] = seg
		if seg.Sequence > maxSeq {
			maxSeq = seg.Sequence
		}
	}

	var payload []byte
	for seq := 1; seq <= maxSeq; seq++ {
		seg, ok := byseq[seq]
		if !ok {
			return nil, &SegmentMissingError{Index: seq}
		}
		payload = append(payload, seg.Data...)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, nil
}

// SegmentCollector accumulates segments of one in-flight multi-frame
// transfer and lets a caller block, bounded, for a specific sequence.
type SegmentCollector struct {
	mu       sync.Mutex
	received map[int]*TransportSegment
	waiters  map[int][]chan *TransportSegment
}

// NewSegmentCollector creates an empty collector for one reassembly.
func NewSegmentCollector() *SegmentCollector {
	return &SegmentCollector{
		received: make(map[int]*TransportSegment),
		waiters:  make(map[int][]chan *TransportSegment),
	}
}

// Deliver records an arrived segment and wakes any waiters for its
// sequence. Duplicate deliveries overwrite; the payload bytes are equal for
// a well-behaved sender and the last copy wins otherwise.
func (c *SegmentCollector) Deliver(seg TransportSegment) {
	c.mu.Lock()
	s := seg
	c.received[seg.Sequence] = &s
	waiting := c.waiters[seg.Sequence]
	delete(c.waiters, seg.Sequence)
	c.mu.Unlock()

	for _, ch := range waiting {
		ch <- &s
	}
}

// WaitForSegment blocks until the segment with the given sequence arrives
// or the timeout elapses, whichever comes first. On timeout it returns a
// SegmentTimeoutError; it never blocks the caller indefinitely.
func (c *SegmentCollector) WaitForSegment(seq int, timeout time.Duration) (*TransportSegment, error) {
	c.mu.Lock()
	if seg, ok := c.received[seq]; ok {
		c.mu.Unlock()
		return seg, nil
	}
	ch := make(chan *TransportSegment, 1)
	c.waiters[seq] = append(c.waiters[seq], ch)
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case seg := <-ch:
		return seg, nil
	case <-timer.C:
		c.mu.Lock()
		c.dropWaiter(seq, ch)
		c.mu.Unlock()
		return nil, &SegmentTimeoutError{Sequence: seq, Timeout: timeout}
	}
}

// Segments returns the collected segments indexed by slice position, sized
// by the announced total (connection-management segment at index 0).
// Positions not yet received are nil, ready for Reassemble.
func (c *SegmentCollector) Segments() []*TransportSegment {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	if cm, ok := c.received[0]; ok {
		total = cm.TotalSegments
	}
	for seq := range c.received {
		if seq > total {
			total = seq
		}
	}

	out := make([]*TransportSegment, total+1)
	for seq, seg := range c.received {
		if seq < len(out) {
			out[seq] = seg
		}
	}
	return out
}

// dropWaiter removes a timed-out waiter channel. Caller holds the lock.
func (c *SegmentCollector) dropWaiter(seq int, ch chan *TransportSegment) {
	waiting := c.waiters[seq]
	for i, w := range waiting {
		if w == ch {
			c.waiters[seq] = append(waiting[:i], waiting[i+1:]...)
			return
		}
	}
}
