// Package query is the dependency-declaration layer. Systems describe
// the data sets they read, write, exclude or filter through a
// [Builder]; the built [Query] doubles as the system's conflict
// profile for the scheduler and as an executable iteration plan.
package query

import (
	"sort"

	"github.com/weft-sim/weft/internal/registry"
)

// Kind discriminates filter entries.
type Kind uint8

const (
	// KindCloserThan passes keys within Dist of Origin.
	KindCloserThan Kind = iota
	// KindFurtherThan passes keys beyond Dist of Origin.
	KindFurtherThan
	// KindChanged passes keys whose entry under the handle changed
	// since the system last ran.
	KindChanged
	// KindAnyChanged passes every key if anything under the handle
	// changed since the system last ran, no key otherwise.
	KindAnyChanged
	// KindWithout excludes keys present under the handle.
	KindWithout
	// KindAccess declares read handles.
	KindAccess
	// KindWrite declares write handles.
	KindWrite
)

// Filter is one declaration entry. Access and write entries carry a
// handle list; without/changed entries carry one handle; spatial
// entries carry a distance and origin instead.
type Filter struct {
	Kind    Kind
	Handles []registry.TypeHandle
	Dist    float64
	Origin  [3]float64
}

// precedence orders evaluation: spatial and change filters run first
// because they are cheap and exclusionary, exclusions next, and the
// access/write set lookups last.
func (f Filter) precedence() int {
	switch f.Kind {
	case KindCloserThan, KindFurtherThan, KindChanged, KindAnyChanged:
		return 10
	case KindWithout:
		return 20
	default:
		return 1000
	}
}

// sortFilters stable-sorts entries by precedence, preserving the call
// order within a class.
func sortFilters(fs []Filter) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].precedence() < fs[j].precedence()
	})
}

// pruneFilters cuts the chain after the first access/write entry: the
// declared sets fully determine the driving iteration, so later
// entries are redundant in the evaluation chain. The declaration
// itself is captured separately before pruning.
func pruneFilters(fs []Filter) []Filter {
	for i, f := range fs {
		if f.Kind == KindAccess || f.Kind == KindWrite {
			return fs[:i+1]
		}
	}
	return fs
}
