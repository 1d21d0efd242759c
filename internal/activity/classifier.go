// Package activity infers the backend pipeline stage of an in-flight agent
// reply by pattern-matching the accumulated message text. The multi-agent
// orchestrator streams log-like stage lines before the answer itself; each
// known marker maps to a stage label, a step description, and a progress
// floor. Matching is monotonic: a rule only applies when its floor exceeds
// the current progress, so rescanning growing text is idempotent and
// progress never moves backwards within one message.
package activity

import (
	"regexp"
	"strconv"
	"strings"
)

// Pipeline stage labels. The set is closed: the backend orchestrator has a
// router, retrieval agents, and a synthesizer, plus a terminal sentinel.
const (
	AgentRouter      = "router"
	AgentRetrieval   = "retrieval"
	AgentSynthesizer = "synthesizer"
	AgentComplete    = "complete"
)

// Snapshot is the activity state attached to one agent message. Progress is
// non-decreasing for the lifetime of the message, IsComplete never reverts
// to false, and QueryType/Confidence persist once captured.
type Snapshot struct {
	CurrentAgent string `json:"current_agent"`
	Step         string `json:"step"`
	Progress     int    `json:"progress"`
	QueryType    string `json:"query_type,omitempty"`
	Confidence   int    `json:"confidence,omitempty"`
	IsComplete   bool   `json:"is_complete"`
}

// NewSnapshot returns the initial state for a freshly created placeholder
// message, before any content has arrived.
func NewSnapshot() Snapshot {
	return Snapshot{
		CurrentAgent: AgentRouter,
		Step:         "analyzing",
		Progress:     0,
	}
}

// rule maps an orchestrator stage marker to the stage it announces. Rules
// are ordered by increasing floor; the floor check enforces monotonicity.
type rule struct {
	marker string
	agent  string
	step   string
	floor  int
}

// Markers are verbatim substrings of the orchestrator's streamed stage
// lines. The emoji are part of the wire text and keep the markers from
// colliding with ordinary answer prose.
var rules = []rule{
	{"Analyzing your question", AgentRouter, "Analyzing question intent", 15},
	{"Query classified as", AgentRouter, "Query classification complete", 30},
	{"processing steps", AgentRouter, "Creating execution plan", 45},
	{"⚡ Step", AgentRetrieval, "Retrieving relevant data", 60},
	{"✅ Retrieved", AgentRetrieval, "Data retrieval complete", 75},
	{"Synthesizing comprehensive response", AgentSynthesizer, "Synthesizing response", 85},
	{"🎯 Recommendations", AgentSynthesizer, "Generating recommendations", 95},
	{"Processing completed", AgentComplete, "Analysis complete", 100},
}

var (
	queryTypePattern  = regexp.MustCompile(`Query classified as: \*\*([A-Za-z_]+)\*\*`)
	confidencePattern = regexp.MustCompile(`Confidence: (\d+)%`)
)

// Update rescans the full accumulated content and advances snap to the
// highest stage whose marker is present. It takes the whole content, not the
// latest fragment, because a marker may straddle two fragments or may have
// arrived before the snapshot was last consulted.
func Update(snap *Snapshot, content string) {
	for _, r := range rules {
		if r.floor > snap.Progress && strings.Contains(content, r.marker) {
			snap.CurrentAgent = r.agent
			snap.Step = r.step
			snap.Progress = r.floor
		}
	}

	// Auxiliary captures persist once seen, regardless of later matches.
	if snap.QueryType == "" {
		if m := queryTypePattern.FindStringSubmatch(content); m != nil {
			snap.QueryType = m[1]
		}
	}
	if snap.Confidence == 0 {
		if m := confidencePattern.FindStringSubmatch(content); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				snap.Confidence = v
			}
		}
	}
}

// Complete forces the terminal state. An explicit complete event from the
// backend always wins over classifier inference, so this bypasses the floor
// check: progress jumps to 100 even if no marker ever matched.
func Complete(snap *Snapshot) {
	snap.CurrentAgent = AgentComplete
	snap.Step = "Analysis complete"
	snap.Progress = 100
	snap.IsComplete = true
}
