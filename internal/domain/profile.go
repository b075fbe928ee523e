package domain

import "strings"

// PetProfile holds the structured facts extracted from a conversation.
// Scalar fields are first-write-wins: once set they are never overwritten
// by a later extraction pass. List fields are append-only with
// de-duplication.
type PetProfile struct {
	Species         string   `json:"species,omitempty"`
	Breed           string   `json:"breed,omitempty"`
	Age             string   `json:"age,omitempty"`
	Weight          string   `json:"weight,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Name            string   `json:"name,omitempty"`
	MedicalHistory  []string `json:"medical_history,omitempty"`
	CurrentSymptoms []string `json:"current_symptoms,omitempty"`
	Medications     []string `json:"medications,omitempty"`
}

// Clone returns a deep copy of the profile.
func (p PetProfile) Clone() PetProfile {
	out := p
	out.MedicalHistory = append([]string(nil), p.MedicalHistory...)
	out.CurrentSymptoms = append([]string(nil), p.CurrentSymptoms...)
	out.Medications = append([]string(nil), p.Medications...)
	return out
}

// Merge copies fields from other into p, but only where p has no value yet.
// Used to seed a profile from caller-supplied pet info before extraction.
func (p *PetProfile) Merge(other PetProfile) {
	setIfEmpty(&p.Species, other.Species)
	setIfEmpty(&p.Breed, other.Breed)
	setIfEmpty(&p.Age, other.Age)
	setIfEmpty(&p.Weight, other.Weight)
	setIfEmpty(&p.Gender, other.Gender)
	setIfEmpty(&p.Name, other.Name)
	for _, s := range other.MedicalHistory {
		p.MedicalHistory = AppendUnique(p.MedicalHistory, s)
	}
	for _, s := range other.CurrentSymptoms {
		p.CurrentSymptoms = AppendUnique(p.CurrentSymptoms, s)
	}
	for _, s := range other.Medications {
		p.Medications = AppendUnique(p.Medications, s)
	}
}

// Summary renders the profile as a short human-readable line for prompts
// and the profile endpoint.
func (p PetProfile) Summary() string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, "name: "+p.Name)
	}
	if p.Species != "" {
		parts = append(parts, "species: "+p.Species)
	}
	if p.Breed != "" {
		parts = append(parts, "breed: "+p.Breed)
	}
	if p.Age != "" {
		parts = append(parts, "age: "+p.Age)
	}
	if p.Weight != "" {
		parts = append(parts, "weight: "+p.Weight)
	}
	if p.Gender != "" {
		parts = append(parts, "gender: "+p.Gender)
	}
	if len(p.CurrentSymptoms) > 0 {
		parts = append(parts, "symptoms: "+strings.Join(p.CurrentSymptoms, ", "))
	}
	if len(p.Medications) > 0 {
		parts = append(parts, "medications: "+strings.Join(p.Medications, ", "))
	}
	if len(p.MedicalHistory) > 0 {
		parts = append(parts, "history: "+strings.Join(p.MedicalHistory, ", "))
	}
	if len(parts) == 0 {
		return "no details known yet"
	}
	return strings.Join(parts, "; ")
}

// AppendUnique appends value to list unless an equal entry
// (case-insensitive) is already present.
func AppendUnique(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			return list
		}
	}
	return append(list, value)
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
