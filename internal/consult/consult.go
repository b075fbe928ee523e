// Package consult drives the slot-filling dialogue: which facts are still
// missing, what to ask next, and when enough is known to give an
// assessment. All functions are pure over the ConsultationState so the
// dialogue policy is deterministic and testable.
package consult

import "github.com/vetassist/vetchat/internal/domain"

// essential is the subset of slots that must be gathered before an
// assessment can be given.
var essential = []domain.Slot{
	domain.SlotSpecies,
	domain.SlotAge,
	domain.SlotDuration,
	domain.SlotSeverity,
}

// questionOrder is the priority in which missing slots are asked about.
// It deliberately differs from the slot declaration order: the four
// essential slots come first so a typical consultation reaches readiness
// in four questions, with supplementary detail (breed, behavior, context)
// asked only after. Within each tier the order is fixed, so the next
// question is always the first unfilled slot of this list.
var questionOrder = []domain.Slot{
	domain.SlotSpecies,
	domain.SlotAge,
	domain.SlotDuration,
	domain.SlotSeverity,
	domain.SlotBreed,
	domain.SlotBehavior,
	domain.SlotContext,
}

// identitySlots survive a consultation reset: they describe the animal,
// not the complaint, and stay true across complaints.
var identitySlots = []domain.Slot{
	domain.SlotSpecies,
	domain.SlotAge,
	domain.SlotBreed,
}

var questions = map[domain.Slot]string{
	domain.SlotSpecies:  "What kind of animal is your pet?",
	domain.SlotAge:      "How old is your pet?",
	domain.SlotBreed:    "What breed is your pet?",
	domain.SlotDuration: "How long has this been going on?",
	domain.SlotSeverity: "How severe would you say it is: mild, moderate, or getting worse?",
	domain.SlotBehavior: "Has your pet's behavior changed, like eating, playing, or sleeping habits?",
	domain.SlotContext:  "Did anything change recently, like new food or something your pet could have gotten into?",
}

// NextSlot returns the highest-priority slot that has not been gathered
// yet. The second return is false when every slot is filled.
func NextSlot(s *domain.ConsultationState) (domain.Slot, bool) {
	for _, slot := range questionOrder {
		if !s.Gathered[slot] {
			return slot, true
		}
	}
	return "", false
}

// Question returns the follow-up question for a slot. An unknown slot gets
// a generic follow-up rather than a panic; it should be unreachable given
// the fixed slot list.
func Question(slot domain.Slot) string {
	if q, ok := questions[slot]; ok {
		return q
	}
	return "Could you tell me a bit more about what's going on?"
}

// MarkGathered flips a slot's gathered flag to true and advances the stage
// to ready_for_assessment once every essential slot is gathered. Flags
// never flip back.
func MarkGathered(s *domain.ConsultationState, slot domain.Slot) {
	if s.Gathered == nil {
		s.Gathered = make(map[domain.Slot]bool, len(domain.Slots))
	}
	s.Gathered[slot] = true
	if s.Stage == domain.StageGathering && Ready(s) {
		s.Stage = domain.StageReady
	}
}

// Ready reports whether all essential slots have been gathered.
func Ready(s *domain.ConsultationState) bool {
	for _, slot := range essential {
		if !s.Gathered[slot] {
			return false
		}
	}
	return true
}

// GiveAssessment marks the assessment as delivered. It fires exactly once:
// a state already past ready_for_assessment is left untouched.
func GiveAssessment(s *domain.ConsultationState) {
	if s.Stage == domain.StageReady {
		s.Stage = domain.StageAssessed
	}
}

// Reset starts a fresh consultation for a new complaint after an
// assessment was given. Identity slots that were already gathered carry
// over; complaint-specific slots, onset, and urgency are cleared.
func Reset(s *domain.ConsultationState) {
	kept := make(map[domain.Slot]bool, len(identitySlots))
	for _, slot := range identitySlots {
		if s.Gathered[slot] {
			kept[slot] = true
		}
	}
	s.Stage = domain.StageGathering
	s.SymptomOnset = ""
	s.Urgency = ""
	s.Gathered = kept
}
