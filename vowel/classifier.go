package vowel

import "slices"

// Classifier maps formant sets onto vowel labels. It is immutable and safe
// for concurrent use.
type Classifier struct {
	table Table
}

// NewClassifier creates a classifier over a copy of table.
func NewClassifier(table Table) *Classifier {
	cp := make(Table, len(table))
	for i, rule := range table {
		cp[i] = Rule{Label: rule.Label, Ranges: slices.Clone(rule.Ranges)}
	}
	return &Classifier{table: cp}
}

// NewDefaultClassifier creates a classifier over DefaultTable.
func NewDefaultClassifier() *Classifier {
	return &Classifier{table: DefaultTable()}
}

// Classify takes the first two entries of formants as (F1, F2) and returns
// the first vowel, in table order, with a range containing them. It returns
// None when formants has fewer than two entries or nothing matches.
//
// Callers pass formants sorted ascending, so F1 and F2 are the two lowest
// peaks rather than the two most prominent.
func (c *Classifier) Classify(formants []float64) Label {
	if len(formants) < 2 {
		return None
	}
	return c.table.match(formants[0], formants[1])
}

// Table returns a copy of the classifier's table.
func (c *Classifier) Table() Table {
	return NewClassifier(c.table).table
}
