package domain

// Stage is the phase a consultation is in. Stages only advance; a reset
// back to StageGathering happens only when a fresh complaint starts a new
// consultation.
type Stage string

const (
	StageGathering Stage = "gathering"
	StageReady     Stage = "ready_for_assessment"
	StageAssessed  Stage = "assessment_given"
)

// Slot is a single named fact the dialogue collects before an assessment.
type Slot string

const (
	SlotSpecies  Slot = "species"
	SlotAge      Slot = "age"
	SlotBreed    Slot = "breed"
	SlotDuration Slot = "duration"
	SlotSeverity Slot = "severity"
	SlotBehavior Slot = "behavior"
	SlotContext  Slot = "context"
)

// Slots is the fixed slot list in declaration order.
var Slots = []Slot{
	SlotSpecies,
	SlotAge,
	SlotBreed,
	SlotDuration,
	SlotSeverity,
	SlotBehavior,
	SlotContext,
}

// ConsultationState tracks which slots have been gathered and the overall
// dialogue stage. Gathered flags only flip false -> true.
type ConsultationState struct {
	Stage        Stage         `json:"stage"`
	SymptomOnset string        `json:"symptom_onset,omitempty"`
	Urgency      string        `json:"urgency,omitempty"`
	Gathered     map[Slot]bool `json:"gathered"`
}

// NewConsultationState returns a fresh state in the gathering stage with
// no slots filled.
func NewConsultationState() ConsultationState {
	return ConsultationState{
		Stage:    StageGathering,
		Gathered: make(map[Slot]bool, len(Slots)),
	}
}

// Clone returns a deep copy of the state.
func (s ConsultationState) Clone() ConsultationState {
	out := s
	out.Gathered = make(map[Slot]bool, len(s.Gathered))
	for k, v := range s.Gathered {
		out.Gathered[k] = v
	}
	return out
}
