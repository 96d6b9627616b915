package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/bncc/internal/domain/model"
)

// Result distribution: most results sit in the middle band, a few at the
// extremes so both ranking views and the zero-baseline case get exercised.
const (
	bandCount  = 8
	midMin     = 40
	midRange   = 41
	highMin    = 75
	highRange  = 26
	lowMin     = 5
	lowRange   = 36
	dayStride  = 7
	zeroResult = 0
	maxResult  = 100
)

// Generator builds deterministic synthetic records for one run.
type Generator struct {
	rng     *rand.Rand
	runID   string
	variant model.Variant
	schools []string
	keys    []string
	days    []model.Date
}

// NewGenerator prepares the school, key and day pools of a run.
func NewGenerator(cfg Config, runID string) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	g := &Generator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		runID:   runID,
		variant: cfg.Variant,
	}
	if g.variant == "" {
		g.variant = model.VariantSkill
	}

	for i := range max(cfg.Schools, 1) {
		g.schools = append(g.schools, fmt.Sprintf("Escola %s %02d", runID, i+1))
	}
	for i := range max(cfg.Keys, 1) {
		if g.variant == model.VariantConstructor {
			g.keys = append(g.keys, fmt.Sprintf("Construtor %02d", i+1))
			continue
		}
		g.keys = append(g.keys, fmt.Sprintf("EF%02dMA%02d", i%9+1, i+1))
	}
	start := model.NewDate(2024, time.February, 5)
	for i := range max(cfg.Days, 1) {
		g.days = append(g.days, start.AddDays(i*dayStride))
	}
	return g
}

// Schools returns the generated school names.
func (g *Generator) Schools() []string { return g.schools }

// Keys returns the generated skill codes or constructor names.
func (g *Generator) Keys() []string { return g.keys }

// Records generates n records. Every record passes model.Validate.
func (g *Generator) Records(n int) []model.Record {
	grades := model.GradeLevels()
	subjects := model.Subjects()
	out := make([]model.Record, 0, n)
	for range n {
		r := model.Record{
			School:     g.schools[g.rng.IntN(len(g.schools))],
			GradeLevel: grades[g.rng.IntN(len(grades))],
			Subject:    subjects[g.rng.IntN(len(subjects))],
			Date:       g.days[g.rng.IntN(len(g.days))],
			Result:     g.result(),
		}
		key := g.keys[g.rng.IntN(len(g.keys))]
		if g.variant == model.VariantConstructor {
			r.Constructor = key
		} else {
			r.Skill = key
		}
		out = append(out, r)
	}
	return out
}

func (g *Generator) result() int {
	switch g.rng.IntN(bandCount) {
	case 0:
		return highMin + g.rng.IntN(highRange)
	case 1:
		return lowMin + g.rng.IntN(lowRange)
	case 2:
		if g.rng.IntN(bandCount) == 0 {
			return zeroResult
		}
		return g.rng.IntN(maxResult + 1)
	default:
		return midMin + g.rng.IntN(midRange)
	}
}
