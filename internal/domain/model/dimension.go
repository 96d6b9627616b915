package model

import (
	"fmt"
	"strings"
)

// Dimension selects a categorical field of a Record for grouping.
type Dimension string

// Grouping dimensions.
const (
	DimSchool      Dimension = "school"
	DimGrade       Dimension = "grade"
	DimSubject     Dimension = "subject"
	DimSkill       Dimension = "skill"
	DimConstructor Dimension = "constructor"
	DimDate        Dimension = "date"
)

// ParseDimension maps a query value to a Dimension. The Portuguese column
// names are accepted as aliases.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "school", "escola":
		return DimSchool, nil
	case "grade", "serie":
		return DimGrade, nil
	case "subject", "disciplina":
		return DimSubject, nil
	case "skill", "habilidade":
		return DimSkill, nil
	case "constructor", "construtor":
		return DimConstructor, nil
	case "date", "data":
		return DimDate, nil
	}
	return "", NewValidationError("dimension", fmt.Sprintf("unknown dimension %q", s))
}

// Variant tells which field identifies the sub-group of a result.
// Early dashboards keyed results by free-text skill code; later ones by a
// constructor drawn from a managed list.
type Variant string

// Known variants.
const (
	VariantSkill       Variant = "skill"
	VariantConstructor Variant = "constructor"
)

// ParseVariant validates a configured variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantSkill:
		return VariantSkill, nil
	case VariantConstructor:
		return VariantConstructor, nil
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// KeyDimension is the fourth trend grouping key for the variant.
func (v Variant) KeyDimension() Dimension {
	if v == VariantConstructor {
		return DimConstructor
	}
	return DimSkill
}

// LookupKind names one of the managed lookup lists.
type LookupKind string

// Lookup lists.
const (
	LookupSchools      LookupKind = "schools"
	LookupConstructors LookupKind = "constructors"
)

// ParseLookupKind maps a path segment to a LookupKind.
func ParseLookupKind(s string) (LookupKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "schools", "escolas":
		return LookupSchools, nil
	case "constructors", "construtores":
		return LookupConstructors, nil
	}
	return "", NewValidationError("kind", fmt.Sprintf("unknown lookup list %q", s))
}
