package job

import (
	"fmt"
	"strings"
	"sync"
)

// Outcome is the realized category of a filter for one row.
type Outcome struct {
	Filter   *Component
	Category string
}

func (o Outcome) String() string {
	if o.Filter == nil {
		return "<nil>." + o.Category
	}
	return o.Filter.Name() + "." + o.Category
}

type outcomeKey struct {
	filter   *Component
	category string
}

// OutcomeSet accumulates the outcomes realized for one row. It is safe for
// concurrent use by the consumers of that row.
type OutcomeSet struct {
	mu  sync.RWMutex
	set map[outcomeKey]struct{}
}

// NewOutcomeSet returns an empty accumulator.
func NewOutcomeSet() *OutcomeSet {
	return &OutcomeSet{set: make(map[outcomeKey]struct{})}
}

func (s *OutcomeSet) Add(o Outcome) {
	s.mu.Lock()
	s.set[outcomeKey{o.Filter, o.Category}] = struct{}{}
	s.mu.Unlock()
}

func (s *OutcomeSet) Contains(o Outcome) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[outcomeKey{o.Filter, o.Category}]
	return ok
}

func (s *OutcomeSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}

// Requirement gates a component on outcomes realized earlier in the same row.
type Requirement interface {
	// Satisfied reports whether the row's outcomes meet the requirement.
	Satisfied(s *OutcomeSet) bool
	// Outcomes lists every outcome the requirement refers to. Their filters
	// must run before the requiring component.
	Outcomes() []Outcome
	String() string
}

// Require is met when the outcome was realized.
func Require(o Outcome) Requirement {
	return OutcomeRequirement{Outcome: o}
}

// RequireAny merges several branches into one: it is met when any of the
// outcomes was realized.
func RequireAny(outcomes ...Outcome) Requirement {
	return AnyOutcomeRequirement{Any: append([]Outcome(nil), outcomes...)}
}

// OutcomeRequirement requires a single outcome.
type OutcomeRequirement struct {
	Outcome Outcome
}

func (r OutcomeRequirement) Satisfied(s *OutcomeSet) bool { return s.Contains(r.Outcome) }
func (r OutcomeRequirement) Outcomes() []Outcome          { return []Outcome{r.Outcome} }
func (r OutcomeRequirement) String() string               { return r.Outcome.String() }

// AnyOutcomeRequirement is the merged outcome of several branches.
type AnyOutcomeRequirement struct {
	Any []Outcome
}

func (r AnyOutcomeRequirement) Satisfied(s *OutcomeSet) bool {
	for _, o := range r.Any {
		if s.Contains(o) {
			return true
		}
	}
	return false
}

func (r AnyOutcomeRequirement) Outcomes() []Outcome { return append([]Outcome(nil), r.Any...) }

func (r AnyOutcomeRequirement) String() string {
	parts := make([]string, len(r.Any))
	for i, o := range r.Any {
		parts[i] = o.String()
	}
	return fmt.Sprintf("any(%s)", strings.Join(parts, ", "))
}
