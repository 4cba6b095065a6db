package vowel

import (
	"errors"
	"fmt"
)

// Range is an inclusive rectangle in (F1, F2) space, in Hz.
type Range struct {
	F1Min, F1Max float64
	F2Min, F2Max float64
}

// Contains reports whether (f1, f2) lies inside r, bounds included.
func (r Range) Contains(f1, f2 float64) bool {
	return r.F1Min <= f1 && f1 <= r.F1Max && r.F2Min <= f2 && f2 <= r.F2Max
}

// Center returns the midpoint of r.
func (r Range) Center() (f1, f2 float64) {
	return (r.F1Min + r.F1Max) / 2, (r.F2Min + r.F2Max) / 2
}

func (r Range) validate() error {
	if r.F1Min < 0 || r.F2Min < 0 {
		return fmt.Errorf("negative bound in %v", r)
	}
	if r.F1Min > r.F1Max {
		return fmt.Errorf("f1 min %.1f exceeds max %.1f", r.F1Min, r.F1Max)
	}
	if r.F2Min > r.F2Max {
		return fmt.Errorf("f2 min %.1f exceeds max %.1f", r.F2Min, r.F2Max)
	}
	return nil
}

// Rule maps one vowel to the ranges it admits.
type Rule struct {
	Label  Label
	Ranges []Range
}

// Table is an ordered list of rules. Order is significant: when ranges of
// different vowels overlap, the rule declared first wins.
type Table []Rule

// DefaultTable returns the built-in vowel ranges.
//
//	a  as in "cat", "father"
//	e  as in "bed"
//	i  as in "see"
//	o  as in "hot", "go"
//	u  as in "food", "put"
func DefaultTable() Table {
	return Table{
		{Label: A, Ranges: []Range{{700, 900, 1100, 1500}, {500, 800, 1200, 1800}}},
		{Label: E, Ranges: []Range{{400, 600, 1800, 2500}}},
		{Label: I, Ranges: []Range{{250, 400, 2000, 3200}}},
		{Label: O, Ranges: []Range{{400, 700, 800, 1300}, {500, 800, 900, 1500}}},
		{Label: U, Ranges: []Range{{250, 400, 700, 1100}, {300, 500, 900, 1300}}},
	}
}

// Validate checks that every rule names a real vowel at most once and that
// every range is well formed. All problems are reported together.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("vowel table is empty")
	}

	var errs []error
	seen := make(map[Label]bool, len(t))
	for i, rule := range t {
		if !rule.Label.Valid() {
			errs = append(errs, fmt.Errorf("rule %d: invalid label %s", i, rule.Label))
			continue
		}
		if seen[rule.Label] {
			errs = append(errs, fmt.Errorf("rule %d: duplicate label %s", i, rule.Label))
		}
		seen[rule.Label] = true

		if len(rule.Ranges) == 0 {
			errs = append(errs, fmt.Errorf("rule %d (%s): no ranges", i, rule.Label))
		}
		for j, r := range rule.Ranges {
			if err := r.validate(); err != nil {
				errs = append(errs, fmt.Errorf("rule %d (%s) range %d: %w", i, rule.Label, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Exemplar returns a formant pair that the table classifies as label: the
// center of the first of its ranges that is not shadowed by an earlier rule.
// ok is false if the label is absent or every range center is shadowed.
func (t Table) Exemplar(label Label) (f1, f2 float64, ok bool) {
	for _, rule := range t {
		if rule.Label != label {
			continue
		}
		for _, r := range rule.Ranges {
			c1, c2 := r.Center()
			if t.match(c1, c2) == label {
				return c1, c2, true
			}
		}
	}
	return 0, 0, false
}

// match returns the first label whose ranges contain (f1, f2).
func (t Table) match(f1, f2 float64) Label {
	for _, rule := range t {
		for _, r := range rule.Ranges {
			if r.Contains(f1, f2) {
				return rule.Label
			}
		}
	}
	return None
}
