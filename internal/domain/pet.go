// Package domain defines the core types and interfaces for the pet shop.
package domain

import (
	"strings"
	"time"
)

// Species is the enumerated pet type. Unrecognized values fall back to Other.
type Species string

const (
	SpeciesDog     Species = "Dog"
	SpeciesCat     Species = "Cat"
	SpeciesRabbit  Species = "Rabbit"
	SpeciesBird    Species = "Bird"
	SpeciesFish    Species = "Fish"
	SpeciesHamster Species = "Hamster"
	SpeciesOther   Species = "Other"
)

var knownSpecies = map[string]Species{
	"dog":     SpeciesDog,
	"cat":     SpeciesCat,
	"rabbit":  SpeciesRabbit,
	"bird":    SpeciesBird,
	"fish":    SpeciesFish,
	"hamster": SpeciesHamster,
}

// ParseSpecies maps a raw type string to a Species, case-insensitively.
// Any non-empty unrecognized value maps to SpeciesOther.
func ParseSpecies(raw string) Species {
	if s, ok := knownSpecies[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return SpeciesOther
}

// Emoji returns the display emoji for a species.
func (s Species) Emoji() string {
	switch s {
	case SpeciesDog:
		return "🐕"
	case SpeciesCat:
		return "🐱"
	case SpeciesRabbit:
		return "🐰"
	case SpeciesBird:
		return "🐦"
	case SpeciesFish:
		return "🐠"
	case SpeciesHamster:
		return "🐹"
	default:
		return "🐾"
	}
}

// Pet is a single pet record.
//
// Happiness and hunger are always clamped to [0,100] after every mutation.
// ID is immutable after creation and never reused within a store lifetime.
// IsSold is a one-way false→true transition.
type Pet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Species   Species   `json:"type"`
	Age       int       `json:"age"`
	Price     float64   `json:"price"`
	Happiness float64   `json:"happiness"`
	Hunger    float64   `json:"hunger"`
	IsSold    bool      `json:"isSold"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Available reports whether the pet is still in the shop.
func (p Pet) Available() bool {
	return !p.IsSold
}

// Clamp constrains a happiness or hunger value to [0,100].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// PetInput is the payload for creating a pet.
type PetInput struct {
	Name    string  `json:"name"`
	Species string  `json:"type"`
	Age     int     `json:"age"`
	Price   float64 `json:"price"`
}

// Validate checks the creation constraints and returns every violation at once.
func (in PetInput) Validate() error {
	var verr ValidationError

	if strings.TrimSpace(in.Name) == "" {
		verr.Add("pet name is required")
	}
	if strings.TrimSpace(in.Species) == "" {
		verr.Add("pet type is required")
	}
	if in.Age < 0 || in.Age > 20 {
		verr.Add("pet age must be between 0 and 20 years")
	}
	if in.Price <= 0 {
		verr.Add("pet price must be a positive number")
	}

	if len(verr.Violations) > 0 {
		return &verr
	}
	return nil
}

// PetUpdate carries the partial fields of an update. Nil fields are left
// untouched. A false IsSold never reverts an already sold pet.
type PetUpdate struct {
	Name      *string  `json:"name,omitempty"`
	Species   *Species `json:"type,omitempty"`
	Age       *int     `json:"age,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Happiness *float64 `json:"happiness,omitempty"`
	Hunger    *float64 `json:"hunger,omitempty"`
	IsSold    *bool    `json:"isSold,omitempty"`
}
