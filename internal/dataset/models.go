// Package dataset generates the per-wildcard value sets behind Random Data
// questions: sampling under four candidate distributions, rejecting
// assignments that break the author's validity rules, and picking the
// distribution whose correct answers come out most spread out.
package dataset

// DistributionKind identifies one of the candidate distributions a value
// set can be drawn from.
type DistributionKind int

const (
	Uniform DistributionKind = iota
	LogUniform
	Normal
	Triangular
)

// Kinds lists every candidate distribution in evaluation (and tie-break)
// order.
var Kinds = []DistributionKind{Uniform, LogUniform, Normal, Triangular}

// String returns the label persisted in results rows.
func (k DistributionKind) String() string {
	switch k {
	case Uniform:
		return "Uniform"
	case LogUniform:
		return "Log-Uniform"
	case Normal:
		return "Normal"
	case Triangular:
		return "Triangle"
	}
	return "Unknown"
}

// Scope says whether a definition belongs to one question or is shared by
// every question in its category.
type Scope int

const (
	ScopePrivate Scope = 0
	ScopeShared  Scope = 1
)

// Definition is the distribution configuration for one wildcard. Identity
// for shared definitions is (Scope, Category, Name).
type Definition struct {
	ID        int64
	Category  int64
	Name      string
	Scope     Scope
	Options   string // packed "kind:min:max:decimals"
	ItemCount int
}

// MaxItems caps the number of stored items per definition.
const MaxItems = 100

// Item is one generated value for one definition. ItemNumber is 1-based;
// the row of items sharing an ItemNumber across a question's definitions
// forms one evaluation slot.
type Item struct {
	ID           int64
	DefinitionID int64
	ItemNumber   int
	Value        float64
}

// Policy controls whether a validation rule tolerates a result class.
type Policy int

const (
	Allow  Policy = 1
	Forbid Policy = 2
)

// ValidationRule constrains the value a formula may take for a generated
// assignment. Min and Max are themselves formulas over the same wildcards;
// empty means unbounded.
type ValidationRule struct {
	ID         int64
	QuestionID int64
	Formula    string
	Zero       Policy
	Positive   Policy
	Negative   Policy
	Min        string
	Max        string
}

// AnswerFormula is the slice of an answer the selector needs: its formula
// and credit fraction. Answers with Fraction == 1 drive distribution
// scoring.
type AnswerFormula struct {
	ID       int64
	Formula  string
	Fraction float64
}
