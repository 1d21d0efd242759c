package stream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transcript = "data: {\"type\":\"sources\",\"sources\":[]}\n" +
	"\n" +
	"data: {\"type\":\"content\",\"content\":\"Hello \"}\n" +
	": heartbeat comment\n" +
	"data: {\"type\":\"content\",\"content\":\"world\"}\n" +
	"event: noise\n" +
	"data: {\"type\":\"complete\"}\n"

// feedAll pushes chunks through a fresh decoder and collects every payload.
func feedAll(chunks ...[]byte) []string {
	decoder := NewFrameDecoder()
	var payloads []string
	for _, chunk := range chunks {
		payloads = append(payloads, decoder.Feed(chunk)...)
	}
	decoder.Finish()
	return payloads
}

func TestFrameDecoderSingleChunk(t *testing.T) {
	payloads := feedAll([]byte(transcript))
	require.Len(t, payloads, 4)
	assert.Equal(t, `{"type":"sources","sources":[]}`, payloads[0])
	assert.Equal(t, `{"type":"content","content":"Hello "}`, payloads[1])
	assert.Equal(t, `{"type":"content","content":"world"}`, payloads[2])
	assert.Equal(t, `{"type":"complete"}`, payloads[3])
}

// Splitting the transcript at every possible byte boundary must yield the
// same payloads in the same order as one big chunk. Byte-level splits also
// cover cuts inside the "data: " prefix and inside multi-byte sequences of
// a payload line.
func TestFrameDecoderChunkBoundaryInvariance(t *testing.T) {
	want := feedAll([]byte(transcript))

	for cut := 0; cut <= len(transcript); cut++ {
		got := feedAll([]byte(transcript[:cut]), []byte(transcript[cut:]))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("split at byte %d changed output (-want +got):\n%s", cut, diff)
		}
	}

	// One byte at a time is the pathological transport.
	var chunks [][]byte
	for i := range transcript {
		chunks = append(chunks, []byte(transcript[i:i+1]))
	}
	got := feedAll(chunks...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("byte-at-a-time feed changed output (-want +got):\n%s", diff)
	}
}

func TestFrameDecoderIgnoresNonDataLines(t *testing.T) {
	input := "retry: 500\nid: 7\nnonsense line\n\ndata: kept\ndata kept-not (no colon-space prefix)\n"
	payloads := feedAll([]byte(input))
	assert.Equal(t, []string{"kept"}, payloads)
}

func TestFrameDecoderDoneSentinel(t *testing.T) {
	decoder := NewFrameDecoder()
	payloads := decoder.Feed([]byte("data: first\ndata: [DONE]\ndata: after\n"))
	assert.Equal(t, []string{"first"}, payloads)
	assert.True(t, decoder.Done())

	// Everything after the sentinel is dropped, even in later chunks.
	assert.Empty(t, decoder.Feed([]byte("data: more\n")))
}

func TestFrameDecoderDiscardsTrailingPartialLine(t *testing.T) {
	decoder := NewFrameDecoder()
	payloads := decoder.Feed([]byte("data: complete-line\ndata: never-termin"))
	assert.Equal(t, []string{"complete-line"}, payloads)

	// End of stream without a trailing newline: the partial frame is not
	// a frame.
	decoder.Finish()
	assert.Empty(t, decoder.Feed([]byte("ated\n")))
}

func TestFrameDecoderCarriesPrefixAcrossChunks(t *testing.T) {
	decoder := NewFrameDecoder()
	assert.Empty(t, decoder.Feed([]byte("da")))
	assert.Empty(t, decoder.Feed([]byte("ta: pay")))
	assert.Equal(t, []string{"payload"}, decoder.Feed([]byte("load\n")))
}

func TestFrameDecoderStripsCarriageReturn(t *testing.T) {
	payloads := feedAll([]byte("data: windows\r\n"))
	assert.Equal(t, []string{"windows"}, payloads)
}
