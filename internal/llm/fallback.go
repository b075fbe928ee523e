package llm

import (
	"fmt"

	"github.com/vetassist/vetchat/internal/consult"
	"github.com/vetassist/vetchat/internal/domain"
)

// Fallback renders a deterministic reply when the model is unavailable,
// keyed by the next missing slot and the last known symptom. The user
// always receives a conversational answer, never an error.
func Fallback(nextSlot domain.Slot, hasNext bool, lastSymptom string) string {
	ack := "Thanks for the details."
	if lastSymptom != "" {
		ack = fmt.Sprintf("I've noted the %s.", lastSymptom)
	}

	if hasNext {
		return ack + " " + consult.Question(nextSlot)
	}
	return ack + " Is there anything else about your pet's condition you'd like to mention?"
}

// FallbackAssessment renders a deterministic assessment when the model is
// unavailable but all essential facts are gathered.
func FallbackAssessment(profile domain.PetProfile, onset, urgency string) string {
	subject := "your pet"
	if profile.Species != "" {
		subject = "your " + profile.Species
	}

	symptom := "the symptoms you described"
	if len(profile.CurrentSymptoms) > 0 {
		symptom = profile.CurrentSymptoms[len(profile.CurrentSymptoms)-1]
	}

	msg := fmt.Sprintf("Based on what you've told me, %s has been showing %s", subject, symptom)
	if onset != "" {
		msg += fmt.Sprintf(" for %s", onset)
	}
	msg += "."
	if urgency != "" {
		msg += fmt.Sprintf(" You described it as %s.", urgency)
	}
	msg += " Keep fresh water available, withhold treats and rich food, and watch closely for any worsening." +
		" If the symptoms persist beyond 24 hours, get worse, or your pet stops eating or drinking," +
		" please have a veterinarian examine them in person."
	return msg
}

// EmergencyResponse is the fixed high-priority reply for a detected
// emergency. It bypasses the model entirely.
func EmergencyResponse(categories []string) string {
	msg := "This sounds like it could be an emergency. Please contact the nearest emergency veterinary clinic immediately or call a pet poison/emergency hotline."
	for _, category := range categories {
		if advice, ok := emergencyAdvice[category]; ok {
			msg += " " + advice
		}
	}
	msg += " Do not wait to see if it improves on its own."
	return msg
}

var emergencyAdvice = map[string]string{
	"breathing_distress": "Keep your pet calm and still, loosen any collar, and avoid covering their face on the way.",
	"toxin_ingestion":    "If you know what was ingested, bring the packaging; do not induce vomiting unless a professional tells you to.",
	"collapse_seizure":   "Clear the area around your pet and do not restrain them or put anything in their mouth.",
	"urinary_blockage":   "A blocked bladder can become fatal within hours, especially in male cats.",
	"trauma":             "Move your pet as little as possible and support the body on a flat surface during transport.",
	"heatstroke":         "Move your pet to shade, offer small amounts of water, and cool them with lukewarm (not ice-cold) water.",
	"severe_bleeding":    "Apply firm, continuous pressure to the wound with a clean cloth during transport.",
}
