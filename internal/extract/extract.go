// Package extract turns free-text user messages into structured profile
// fields. Extraction is rule-based: an ordered list of matchers runs over
// the text, and each scalar matcher fires only when its field is still
// unset, so a later ambiguous utterance can never erase a confirmed fact.
package extract

import (
	"regexp"
	"strings"

	"github.com/vetassist/vetchat/internal/domain"
)

// rule binds a profile field to its matcher. applies gates the rule on the
// current profile (first-write-wins); apply mutates the profile when the
// text matches.
type rule struct {
	name    string
	applies func(p *domain.PetProfile) bool
	apply   func(text, lower string, p *domain.PetProfile)
}

// speciesTerms is ordered; when a message mentions several species the
// one appearing earliest in the text wins, so extraction stays
// deterministic for a given (text, profile).
var speciesTerms = []struct {
	term    string
	species string
}{
	{"dog", "dog"},
	{"puppy", "dog"},
	{"pup", "dog"},
	{"cat", "cat"},
	{"kitten", "cat"},
	{"kitty", "cat"},
	{"bird", "bird"},
	{"parrot", "bird"},
	{"budgie", "bird"},
	{"rabbit", "rabbit"},
	{"bunny", "rabbit"},
	{"hamster", "hamster"},
	{"guinea pig", "guinea pig"},
	{"ferret", "ferret"},
	{"turtle", "turtle"},
	{"lizard", "lizard"},
	{"snake", "snake"},
	{"horse", "horse"},
	{"fish", "fish"},
}

var breedTerms = []string{
	"labrador", "golden retriever", "german shepherd", "poodle", "bulldog",
	"beagle", "dachshund", "chihuahua", "pug", "boxer", "rottweiler",
	"husky", "corgi", "shih tzu", "terrier", "spaniel", "collie",
	"great dane", "doberman", "pitbull", "pit bull", "maltese", "pomeranian",
	"persian", "siamese", "maine coon", "ragdoll", "bengal", "sphynx",
	"british shorthair",
}

var (
	ageRe      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:-)?\s*(year|yr|month|mo|week|wk|day)s?(?:\s*old)?\b`)
	weightRe   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(kg|kilo|kilogram|lb|lbs|pound)s?\b`)
	nameRe     = regexp.MustCompile(`(?i)\b(?:named|called|name is)\s+([A-Za-z][A-Za-z'-]*)`)
	durationRe = regexp.MustCompile(`(?i)\b(?:for|since|over)\s+(?:the\s+)?(?:last\s+|past\s+)?((?:\d+|a|an|a few|couple of|several)\s*(?:hour|day|week|month)s?|yesterday|last night|this morning|today)\b`)
)

var symptomTerms = []string{
	"vomiting", "throwing up", "diarrhea", "not eating", "won't eat",
	"loss of appetite", "lethargic", "lethargy", "limping", "coughing",
	"sneezing", "itching", "scratching", "hair loss", "shaking", "trembling",
	"drooling", "swollen", "swelling", "fever", "constipated", "constipation",
	"dehydrated", "weight loss", "drinking a lot", "not drinking",
	"whining", "crying", "bloated", "rash",
}

var medicationTerms = []string{
	"antibiotic", "amoxicillin", "prednisone", "metacam", "meloxicam",
	"gabapentin", "insulin", "apoquel", "frontline", "heartgard",
	"flea medication", "dewormer", "painkiller", "pain medication",
}

var rules = []rule{
	{
		name:    "species",
		applies: func(p *domain.PetProfile) bool { return p.Species == "" },
		apply: func(_, lower string, p *domain.PetProfile) {
			best := -1
			for _, st := range speciesTerms {
				if i := wordIndex(lower, st.term); i >= 0 && (best < 0 || i < best) {
					best = i
					p.Species = st.species
				}
			}
		},
	},
	{
		name:    "breed",
		applies: func(p *domain.PetProfile) bool { return p.Breed == "" },
		apply: func(_, lower string, p *domain.PetProfile) {
			for _, breed := range breedTerms {
				if strings.Contains(lower, breed) {
					p.Breed = breed
					return
				}
			}
		},
	},
	{
		name:    "age",
		applies: func(p *domain.PetProfile) bool { return p.Age == "" },
		apply: func(text, _ string, p *domain.PetProfile) {
			if m := ageRe.FindStringSubmatch(text); m != nil {
				p.Age = m[1] + " " + normalizeUnit(m[2]) + pluralSuffix(m[1])
			}
		},
	},
	{
		name:    "weight",
		applies: func(p *domain.PetProfile) bool { return p.Weight == "" },
		apply: func(text, _ string, p *domain.PetProfile) {
			if m := weightRe.FindStringSubmatch(text); m != nil {
				p.Weight = m[1] + " " + normalizeWeightUnit(m[2])
			}
		},
	},
	{
		name:    "gender",
		applies: func(p *domain.PetProfile) bool { return p.Gender == "" },
		apply: func(_, lower string, p *domain.PetProfile) {
			switch {
			case containsWord(lower, "neutered"):
				p.Gender = "male (neutered)"
			case containsWord(lower, "spayed"):
				p.Gender = "female (spayed)"
			case containsWord(lower, "female") || containsWord(lower, "she"):
				p.Gender = "female"
			case containsWord(lower, "male") || containsWord(lower, "he"):
				p.Gender = "male"
			}
		},
	},
	{
		name:    "name",
		applies: func(p *domain.PetProfile) bool { return p.Name == "" },
		apply: func(text, _ string, p *domain.PetProfile) {
			if m := nameRe.FindStringSubmatch(text); m != nil {
				p.Name = m[1]
			}
		},
	},
	{
		name:    "symptoms",
		applies: func(p *domain.PetProfile) bool { return true },
		apply: func(_, lower string, p *domain.PetProfile) {
			for _, term := range symptomTerms {
				if strings.Contains(lower, term) {
					p.CurrentSymptoms = domain.AppendUnique(p.CurrentSymptoms, term)
				}
			}
		},
	},
	{
		name:    "medications",
		applies: func(p *domain.PetProfile) bool { return true },
		apply: func(_, lower string, p *domain.PetProfile) {
			for _, term := range medicationTerms {
				if strings.Contains(lower, term) {
					p.Medications = domain.AppendUnique(p.Medications, term)
				}
			}
		},
	},
}

// Extract applies all matching rules to text and returns the updated
// profile. The input profile is not mutated; calling Extract twice with
// the same text is a no-op on the second call.
func Extract(text string, profile domain.PetProfile) domain.PetProfile {
	p := profile.Clone()
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.applies(&p) {
			r.apply(text, lower, &p)
		}
	}
	return p
}

// Duration pulls a symptom-onset phrase out of text ("for 2 days",
// "since yesterday"). The phrase is returned as written by the user.
func Duration(text string) (string, bool) {
	if m := durationRe.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1]), true
	}
	return "", false
}

var severityTerms = []string{
	"mild", "moderate", "severe", "getting worse", "getting better",
	"very bad", "really bad", "a lot", "constantly", "occasionally",
	"sometimes", "all the time", "worse", "better",
}

// Severity detects an urgency descriptor in text.
func Severity(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, term := range severityTerms {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

var behaviorTerms = []string{
	"hiding", "restless", "pacing", "aggressive", "clingy", "sleeping more",
	"sleeping a lot", "not playing", "less active", "acting strange",
	"acting weird", "behaving normally", "still eating", "still playing",
}

// BehaviorNoted reports whether text describes the pet's behavior.
func BehaviorNoted(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range behaviorTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

var contextTerms = []string{
	"new food", "changed food", "switched food", "after eating", "ate something",
	"new home", "moved house", "new pet", "boarding", "kennel", "groomer",
	"vaccinated", "vaccination", "around other", "at the park", "outside",
}

// ContextNoted reports whether text mentions circumstances around the
// symptoms (diet change, environment, exposure).
func ContextNoted(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range contextTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// containsWord reports whether lower contains term bounded by non-letters,
// so "cat" does not match "category".
func containsWord(lower, term string) bool {
	return wordIndex(lower, term) >= 0
}

// wordIndex returns the index of the first occurrence of term in lower
// bounded by non-letters, or -1 when there is none.
func wordIndex(lower, term string) int {
	idx := 0
	for {
		i := strings.Index(lower[idx:], term)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isLetter(lower[start-1])
		afterOK := end == len(lower) || !isLetter(lower[end])
		if beforeOK && afterOK {
			return start
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "yr", "year":
		return "year"
	case "mo", "month":
		return "month"
	case "wk", "week":
		return "week"
	default:
		return "day"
	}
}

func normalizeWeightUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "kg", "kilo", "kilogram":
		return "kg"
	default:
		return "lb"
	}
}

func pluralSuffix(amount string) string {
	if amount == "1" {
		return ""
	}
	return "s"
}
