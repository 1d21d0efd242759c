package activity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageLines is an orchestrator transcript in arrival order, one streamed
// fragment per element.
var stageLines = []string{
	"🧠 Analyzing your question...\n\n",
	"📋 Query classified as: **aggregation_analysis**\n",
	"🎯 Confidence: 85%\n",
	"📊 Planning 2 processing steps...\n\n",
	"⚡ Step 1: Search uploaded data...\n",
	"✅ Retrieved 5 relevant data points\n",
	"\n🔄 Synthesizing comprehensive response...\n\n",
	"## 🎯 Recommendations\n\n1. Increase ad spend\n",
	"---\n*Processing completed in 2.3s using 3 agents*\n",
}

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot()
	assert.Equal(t, AgentRouter, snap.CurrentAgent)
	assert.Equal(t, "analyzing", snap.Step)
	assert.Zero(t, snap.Progress)
	assert.False(t, snap.IsComplete)
}

func TestUpdateAdvancesThroughStages(t *testing.T) {
	wantProgress := []int{15, 30, 30, 45, 60, 75, 85, 95, 100}

	snap := NewSnapshot()
	content := ""
	for i, line := range stageLines {
		content += line
		Update(&snap, content)
		assert.Equal(t, wantProgress[i], snap.Progress, "after fragment %d", i)
	}

	assert.Equal(t, AgentComplete, snap.CurrentAgent)
	assert.Equal(t, "aggregation_analysis", snap.QueryType)
	assert.Equal(t, 85, snap.Confidence)
	// Inferring "finished" from text never flips the completion flag;
	// only an explicit complete event does.
	assert.False(t, snap.IsComplete)
}

func TestUpdateIsMonotonic(t *testing.T) {
	full := strings.Join(stageLines, "")

	snap := NewSnapshot()
	last := 0
	// Rescanning a growing prefix must never decrease progress.
	for cut := 0; cut <= len(full); cut += 7 {
		Update(&snap, full[:cut])
		require.GreaterOrEqual(t, snap.Progress, last)
		last = snap.Progress
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	content := strings.Join(stageLines[:5], "")

	snap := NewSnapshot()
	Update(&snap, content)
	first := snap

	// Re-scanning identical content changes nothing.
	Update(&snap, content)
	assert.Equal(t, first, snap)
}

func TestUpdateEarlyMarkerCannotRegress(t *testing.T) {
	snap := NewSnapshot()
	Update(&snap, "🔄 Synthesizing comprehensive response...")
	require.Equal(t, 85, snap.Progress)

	// A low-floor marker arriving late (quoted in the answer, say) must
	// not pull the stage backwards.
	Update(&snap, "🔄 Synthesizing comprehensive response... 🧠 Analyzing your question")
	assert.Equal(t, 85, snap.Progress)
	assert.Equal(t, AgentSynthesizer, snap.CurrentAgent)
}

func TestCapturesPersist(t *testing.T) {
	snap := NewSnapshot()
	Update(&snap, "📋 Query classified as: **trend_analysis**\n🎯 Confidence: 70%")
	require.Equal(t, "trend_analysis", snap.QueryType)
	require.Equal(t, 70, snap.Confidence)

	// Later frames that do not repeat the capture lines keep the values.
	Update(&snap, "✅ Retrieved 3 relevant data points")
	assert.Equal(t, "trend_analysis", snap.QueryType)
	assert.Equal(t, 70, snap.Confidence)
}

func TestCompleteDominates(t *testing.T) {
	snap := NewSnapshot()
	Update(&snap, "📊 Planning 1 processing steps...")
	require.Equal(t, 45, snap.Progress)

	Complete(&snap)
	assert.Equal(t, 100, snap.Progress)
	assert.True(t, snap.IsComplete)
	assert.Equal(t, AgentComplete, snap.CurrentAgent)

	// Completion is final: later rescans cannot move anything.
	Update(&snap, "🧠 Analyzing your question")
	assert.Equal(t, 100, snap.Progress)
	assert.True(t, snap.IsComplete)
}

func TestCompleteKeepsCaptures(t *testing.T) {
	snap := NewSnapshot()
	Update(&snap, "📋 Query classified as: **multi_step_complex**\n🎯 Confidence: 90%")
	Complete(&snap)
	assert.Equal(t, "multi_step_complex", snap.QueryType)
	assert.Equal(t, 90, snap.Confidence)
}

func TestCompleteOnEmptySnapshot(t *testing.T) {
	snap := NewSnapshot()
	Complete(&snap)
	assert.Equal(t, 100, snap.Progress)
	assert.True(t, snap.IsComplete)
}
