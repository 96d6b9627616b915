// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Subject is the discipline a result belongs to.
type Subject string

// Subjects accepted by the report. Values are stored as written here.
const (
	SubjectPortuguese  Subject = "Português"
	SubjectMathematics Subject = "Matemática"
)

// Subjects lists every valid subject in display order.
func Subjects() []Subject {
	return []Subject{SubjectPortuguese, SubjectMathematics}
}

// Valid reports whether s is a known subject.
func (s Subject) Valid() bool {
	for _, known := range Subjects() {
		if s == known {
			return true
		}
	}
	return false
}

// gradeLevels are the grade labels, 1st to 9th year.
var gradeLevels = []string{
	"1º ano", "2º ano", "3º ano", "4º ano", "5º ano",
	"6º ano", "7º ano", "8º ano", "9º ano",
}

// GradeLevels returns the grade labels in order.
func GradeLevels() []string {
	out := make([]string, len(gradeLevels))
	copy(out, gradeLevels)
	return out
}

// ValidGradeLevel reports whether g is one of GradeLevels.
func ValidGradeLevel(g string) bool {
	for _, known := range gradeLevels {
		if g == known {
			return true
		}
	}
	return false
}

// RecordID is the store-assigned identifier of a record. Stores may hand it
// out as a number or a string; it is always carried as a string.
type RecordID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *RecordID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = RecordID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("record id must be a number or string: %w", err)
	}
	*id = RecordID(s)
	return nil
}

// Int64 returns the id as an integer, for stores with numeric keys.
func (id RecordID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// Record is one performance result row.
// JSON names follow the columns of the relatorios_bncc table.
type Record struct {
	ID          RecordID `json:"id,omitempty"`
	School      string   `json:"escola" validate:"required,max=200"`
	GradeLevel  string   `json:"serie" validate:"required,grade"`
	Subject     Subject  `json:"disciplina" validate:"required,subject"`
	Date        Date     `json:"data"`
	Skill       string   `json:"habilidade,omitempty" validate:"max=200"`
	Constructor string   `json:"construtor,omitempty" validate:"max=200"`
	Result      int      `json:"resultado" validate:"min=0,max=100"`
}

// Normalized returns a copy with surrounding whitespace removed from every
// text field.
func (r Record) Normalized() Record {
	r.School = strings.TrimSpace(r.School)
	r.GradeLevel = strings.TrimSpace(r.GradeLevel)
	r.Subject = Subject(strings.TrimSpace(string(r.Subject)))
	r.Skill = strings.TrimSpace(r.Skill)
	r.Constructor = strings.TrimSpace(r.Constructor)
	return r
}

// Field returns the value of the grouping field d. DimDate yields the
// YYYY-MM-DD form of the date.
func (r Record) Field(d Dimension) string {
	switch d {
	case DimSchool:
		return r.School
	case DimGrade:
		return r.GradeLevel
	case DimSubject:
		return string(r.Subject)
	case DimSkill:
		return r.Skill
	case DimConstructor:
		return r.Constructor
	case DimDate:
		return r.Date.String()
	default:
		return ""
	}
}

// Trimmed returns a trimmed lookup name.
func Trimmed(name string) string {
	return strings.TrimSpace(name)
}
