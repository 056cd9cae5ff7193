package inference

// State is the inferred mastery of one concept.
type State string

const (
	Learned    State = "learned"
	NotLearned State = "not_learned"
	Unknown    State = "unknown"
)

// DefaultStreakThreshold is how many trailing correct answers mark a concept
// as learned.
const DefaultStreakThreshold = 2

// AttemptRecord is one submitted answer. Records are expected oldest first.
type AttemptRecord struct {
	ConceptID string
	Correct   bool
}

// MasteryResult maps concept id to its inferred state.
type MasteryResult map[string]State

// Count returns how many concepts are in state s.
func (r MasteryResult) Count(s State) int {
	n := 0
	for _, st := range r {
		if st == s {
			n++
		}
	}
	return n
}

// Summary is the per-concept tally behind a state.
type Summary struct {
	ConceptID string `json:"concept_id"`
	Attempts  int    `json:"attempts"`
	Correct   int    `json:"correct"`
	Streak    int    `json:"streak"`
	State     State  `json:"state"`
}

// Inferrer applies the trailing-streak rule. The zero value uses
// DefaultStreakThreshold.
type Inferrer struct {
	StreakThreshold int
}

func (in Inferrer) threshold() int {
	if in.StreakThreshold <= 0 {
		return DefaultStreakThreshold
	}
	return in.StreakThreshold
}

// Infer runs the default Inferrer.
func Infer(records []AttemptRecord) MasteryResult {
	return Inferrer{}.Infer(records)
}

// Infer returns a state for every distinct concept in records.
func (in Inferrer) Infer(records []AttemptRecord) MasteryResult {
	out := make(MasteryResult)
	for _, s := range in.Summaries(records) {
		out[s.ConceptID] = s.State
	}
	return out
}

// InferWithConcepts is Infer plus Unknown for every concept in concepts that
// has no records.
func (in Inferrer) InferWithConcepts(records []AttemptRecord, concepts []string) MasteryResult {
	out := in.Infer(records)
	for _, c := range concepts {
		if _, ok := out[c]; !ok {
			out[c] = Unknown
		}
	}
	return out
}

// Summaries tallies records per concept, in order of first appearance.
func (in Inferrer) Summaries(records []AttemptRecord) []Summary {
	idx := make(map[string]int)
	var out []Summary
	for _, r := range records {
		i, ok := idx[r.ConceptID]
		if !ok {
			i = len(out)
			idx[r.ConceptID] = i
			out = append(out, Summary{ConceptID: r.ConceptID})
		}
		s := &out[i]
		s.Attempts++
		if r.Correct {
			s.Correct++
			s.Streak++
		} else {
			s.Streak = 0
		}
	}
	t := in.threshold()
	for i := range out {
		if out[i].Streak >= t {
			out[i].State = Learned
		} else {
			out[i].State = NotLearned
		}
	}
	return out
}
