// Package triage flags messages that describe a veterinary emergency.
// Matching is deliberately conservative: short, common phrasings and
// substring membership, favoring false escalations over missed
// emergencies. Classification runs before any other per-turn processing so
// an emergency can short-circuit the dialogue regardless of session stage.
package triage

import "strings"

// Result is the classification outcome. Categories lists every matched
// emergency category in taxonomy order.
type Result struct {
	Emergency  bool
	Categories []string
}

// category names are stable identifiers persisted to the emergency log.
const (
	CategoryBreathing = "breathing_distress"
	CategoryPoisoning = "toxin_ingestion"
	CategoryCollapse  = "collapse_seizure"
	CategoryUrinary   = "urinary_blockage"
	CategoryTrauma    = "trauma"
	CategoryHeat      = "heatstroke"
	CategoryBleeding  = "severe_bleeding"
)

var taxonomy = []struct {
	category string
	phrases  []string
}{
	{CategoryBreathing, []string{
		"not breathing", "can't breathe", "cant breathe", "cannot breathe",
		"trouble breathing", "difficulty breathing", "struggling to breathe",
		"gasping", "choking", "turning blue", "blue gums", "blue tongue",
	}},
	{CategoryPoisoning, []string{
		"ate chocolate", "ate grapes", "ate raisins", "ate onion",
		"ate xylitol", "ate a lily", "ate rat poison", "rat poison",
		"antifreeze", "poisoned", "swallowed poison", "toxic", "ate something toxic",
		"ate medication", "ate pills", "ate ibuprofen",
	}},
	{CategoryCollapse, []string{
		"collapsed", "collapsing", "seizure", "seizing", "convulsing",
		"convulsions", "unconscious", "unresponsive", "won't wake up",
		"wont wake up", "passed out",
	}},
	{CategoryUrinary, []string{
		"can't pee", "cant pee", "can't urinate", "cant urinate",
		"cannot urinate", "straining to pee", "straining to urinate",
		"no urine", "blocked bladder", "not peeing",
	}},
	{CategoryTrauma, []string{
		"hit by a car", "hit by car", "run over", "fell from", "fell off",
		"broken bone", "broken leg", "attacked by", "bitten by a snake",
		"snake bite", "dog attack",
	}},
	{CategoryHeat, []string{
		"heatstroke", "heat stroke", "overheated", "overheating",
		"left in the car", "left in a hot car", "collapsed in the heat",
	}},
	{CategoryBleeding, []string{
		"bleeding heavily", "bleeding a lot", "won't stop bleeding",
		"wont stop bleeding", "severe bleeding", "blood everywhere",
		"pool of blood", "coughing blood", "vomiting blood",
	}},
}

// Classify tests text against every emergency phrase, case-insensitively.
// Runtime is linear in len(text) times the size of the phrase table.
func Classify(text string) Result {
	lower := strings.ToLower(text)

	var matched []string
	for _, entry := range taxonomy {
		for _, phrase := range entry.phrases {
			if strings.Contains(lower, phrase) {
				matched = append(matched, entry.category)
				break
			}
		}
	}

	return Result{Emergency: len(matched) > 0, Categories: matched}
}
