package extract

import (
	"reflect"
	"testing"

	"github.com/vetassist/vetchat/internal/domain"
)

func TestExtract_Species(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"my dog is not eating", "dog"},
		{"My puppy keeps sneezing", "dog"},
		{"the kitten won't drink", "cat"},
		{"I have a Rabbit", "rabbit"},
		{"something about categories", ""},
		{"my guinea pig is lethargic", "guinea pig"},
	}

	for _, tt := range tests {
		got := Extract(tt.text, domain.PetProfile{})
		if got.Species != tt.want {
			t.Errorf("Extract(%q).Species = %q, want %q", tt.text, got.Species, tt.want)
		}
	}
}

func TestExtract_SpeciesEarliestMentionWins(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"my dog got into a fight with a cat", "dog"},
		{"the cat was attacked by a dog", "cat"},
		{"a kitten and a puppy share a bowl", "cat"},
	}

	for _, tt := range tests {
		// Same (text, profile) must always yield the same species.
		for i := 0; i < 50; i++ {
			got := Extract(tt.text, domain.PetProfile{})
			if got.Species != tt.want {
				t.Fatalf("Extract(%q).Species = %q on run %d, want %q", tt.text, got.Species, i+1, tt.want)
			}
		}
	}
}

func TestExtract_Age(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"she is 3 years old", "3 years"},
		{"3 yrs old", "3 years"},
		{"he's 1 year old", "1 year"},
		{"about 6 months", "6 months"},
		{"2 week old kitten", "2 weeks"},
		{"no age here", ""},
	}

	for _, tt := range tests {
		got := Extract(tt.text, domain.PetProfile{})
		if got.Age != tt.want {
			t.Errorf("Extract(%q).Age = %q, want %q", tt.text, got.Age, tt.want)
		}
	}
}

func TestExtract_FirstWriteWins(t *testing.T) {
	p := Extract("my dog is 3 years old", domain.PetProfile{})
	if p.Species != "dog" || p.Age != "3 years" {
		t.Fatalf("initial extract = %+v", p)
	}

	// Contradicting input must not overwrite confirmed facts.
	p2 := Extract("actually my cat is 5 years old", p)
	if p2.Species != "dog" {
		t.Errorf("Species overwritten: got %q, want dog", p2.Species)
	}
	if p2.Age != "3 years" {
		t.Errorf("Age overwritten: got %q, want 3 years", p2.Age)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	text := "my dog Rex is 2 years old, vomiting and lethargic, on amoxicillin"
	once := Extract(text, domain.PetProfile{})
	twice := Extract(text, once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Extract not idempotent:\nonce  = %+v\ntwice = %+v", once, twice)
	}
}

func TestExtract_DoesNotMutateInput(t *testing.T) {
	in := domain.PetProfile{CurrentSymptoms: []string{"vomiting"}}
	_ = Extract("and now diarrhea too", in)
	if len(in.CurrentSymptoms) != 1 {
		t.Errorf("input profile mutated: %+v", in.CurrentSymptoms)
	}
}

func TestExtract_Name(t *testing.T) {
	p := Extract("my dog named Bella is limping", domain.PetProfile{})
	if p.Name != "Bella" {
		t.Errorf("Name = %q, want Bella", p.Name)
	}
	p = Extract("she is called Luna", domain.PetProfile{})
	if p.Name != "Luna" {
		t.Errorf("Name = %q, want Luna", p.Name)
	}
}

func TestExtract_SymptomsAppendDedupe(t *testing.T) {
	p := Extract("vomiting since yesterday", domain.PetProfile{})
	p = Extract("still vomiting, now diarrhea", p)

	want := []string{"vomiting", "diarrhea"}
	if !reflect.DeepEqual(p.CurrentSymptoms, want) {
		t.Errorf("CurrentSymptoms = %v, want %v", p.CurrentSymptoms, want)
	}
}

func TestExtract_WeightAndGender(t *testing.T) {
	p := Extract("she is a spayed female, about 4.5 kg", domain.PetProfile{})
	if p.Weight != "4.5 kg" {
		t.Errorf("Weight = %q, want 4.5 kg", p.Weight)
	}
	if p.Gender != "female (spayed)" {
		t.Errorf("Gender = %q, want female (spayed)", p.Gender)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"since 2 days", "2 days", true},
		{"not eating for 3 days", "3 days", true},
		{"it started since yesterday", "yesterday", true},
		{"for the past few hours", "", false},
		{"coughing for a week", "a week", true},
		{"no duration at all", "", false},
	}

	for _, tt := range tests {
		got, ok := Duration(tt.text)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Duration(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSeverity(t *testing.T) {
	if got, ok := Severity("it is getting worse"); !ok || got != "getting worse" {
		t.Errorf("Severity = (%q, %v), want (getting worse, true)", got, ok)
	}
	if _, ok := Severity("my dog is 3 years old"); ok {
		t.Error("Severity matched text with no severity descriptor")
	}
}

func TestBehaviorAndContext(t *testing.T) {
	if !BehaviorNoted("he has been hiding under the bed") {
		t.Error("BehaviorNoted = false, want true")
	}
	if BehaviorNoted("3 years old") {
		t.Error("BehaviorNoted = true for plain age text")
	}
	if !ContextNoted("it started after we switched food") {
		t.Error("ContextNoted = false, want true")
	}
	if ContextNoted("she is vomiting") {
		t.Error("ContextNoted = true for plain symptom text")
	}
}
