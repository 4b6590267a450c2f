// Package category holds the fixed classification vocabulary embedded in
// the extraction prompt. The analytics layer relies on these exact names.
package category

import "strings"

// Other is the sentinel category assigned when the model returns a missing
// or unrecognized category.
const Other = "Other"

// Cost type labels separating recurring essential spend from discretionary
// spend.
const (
	CostFixed    = "fixed"
	CostVariable = "variable"
)

// Names is the closed set of spending categories the model is asked to
// choose from.
var Names = []string{
	"Food & Dining",
	"Shopping",
	"Transport",
	"Utilities",
	"Entertainment",
	"Healthcare",
	"Education",
	"Subscriptions",
	"Rent & Housing",
	"Insurance",
	"Transfers",
	"Income",
	"ATM",
	Other,
}

var nameSet = func() map[string]bool {
	m := make(map[string]bool, len(Names))
	for _, n := range Names {
		m[n] = true
	}
	return m
}()

// Valid reports whether name is part of the vocabulary.
func Valid(name string) bool {
	return nameSet[name]
}

// NormalizeCostType maps a model-supplied value onto the closed
// fixed/variable set. Anything that is not "fixed" is variable.
func NormalizeCostType(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), CostFixed) {
		return CostFixed
	}
	return CostVariable
}
