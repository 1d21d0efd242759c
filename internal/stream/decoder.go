// Package stream reassembles and parses the newline-delimited `data: ...`
// frames emitted by the Helios agent query endpoint. The decoder handles
// arbitrary chunk boundaries; the parser turns one payload into a typed
// event with a legacy raw-text fallback for pre-protocol frames.
package stream

import "strings"

const (
	// framePrefix marks a protocol frame. Lines without it are noise
	// (blank separators, comments) and are dropped.
	framePrefix = "data: "

	// doneSentinel is the literal payload the backend may send to close
	// the stream instead of relying on transport EOF.
	doneSentinel = "[DONE]"
)

// FrameDecoder turns raw byte chunks into frame payloads. It keeps a single
// carry-over buffer so a line split across chunk boundaries is reassembled
// before it is inspected. Feeding the same transcript in any chunking yields
// the same payloads in the same order.
//
// FrameDecoder is not safe for concurrent use; the read loop is the only
// caller.
type FrameDecoder struct {
	carry string
	done  bool
}

// NewFrameDecoder returns a decoder with an empty carry buffer.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Feed appends chunk to the carry buffer and returns the payloads of every
// complete frame now available. The final, possibly incomplete line stays in
// the carry buffer for the next chunk. After the [DONE] sentinel has been
// seen, Feed drops all further input.
func (d *FrameDecoder) Feed(chunk []byte) []string {
	if d.done {
		return nil
	}

	lines := strings.Split(d.carry+string(chunk), "\n")

	// Every element except the last ends at a newline and is complete.
	// The last element may still be growing.
	d.carry = lines[len(lines)-1]

	var payloads []string
	for _, line := range lines[:len(lines)-1] {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, framePrefix) {
			continue
		}
		payload := line[len(framePrefix):]
		if payload == doneSentinel {
			d.done = true
			d.carry = ""
			break
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

// Finish signals end-of-stream. Any leftover carry buffer is discarded: a
// stream is not required to end with a trailing newline, and a frame that
// was never terminated is not a frame.
func (d *FrameDecoder) Finish() {
	d.done = true
	d.carry = ""
}

// Done reports whether the [DONE] sentinel was observed or Finish was
// called. Once true, the decoder emits nothing further.
func (d *FrameDecoder) Done() bool {
	return d.done
}
