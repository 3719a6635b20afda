package domain

// Evaluation is the grounding judgment for one answer. Score is always
// present and within [0, 1]; when the upstream judgment is malformed a
// heuristic fallback fills it in instead.
type Evaluation struct {
	Score        float64 `json:"score"`
	Rationale    string  `json:"rationale"`
	Improvements string  `json:"improvements"`
}

type TerminationReason string

const (
	// TerminatedByThreshold: the last round's score met the target.
	TerminatedByThreshold TerminationReason = "threshold"
	// TerminatedByExhaustion: the round cap was reached without
	// meeting the target.
	TerminatedByExhaustion TerminationReason = "rounds_exhausted"
)

// RoundRecord is the trace of one retrieve→filter→answer→evaluate pass.
type RoundRecord struct {
	Round      int        `json:"round"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Evaluation Evaluation `json:"score"`
	UsedChunks []string   `json:"used_chunks"`
	ElapsedSec float64    `json:"latency_sec"`

	// Fallback markers: true when the corresponding judgment response
	// was malformed and the deterministic local policy filled in.
	GuardFallback bool `json:"guard_fallback,omitempty"`
	EvalFallback  bool `json:"eval_fallback,omitempty"`
}

// Report is the terminal output of a refinement run: the full ordered
// transcript plus the last round's answer and score.
type Report struct {
	RunID       string            `json:"run_id"`
	Question    string            `json:"question"`
	FinalAnswer string            `json:"final_answer"`
	FinalScore  Evaluation        `json:"final_score"`
	Termination TerminationReason `json:"termination"`
	Rounds      []RoundRecord     `json:"rounds"`
}
