// Package graph builds and resolves the per-method Variable & Frame graph —
// C3 in SPEC_FULL.md §4.3. A Frame contributes zero or more Variables and
// reads zero or more Variables; Resolve topologically places frames so every
// read happens after its producer, breaking ties by contribution order and
// raising PipelineCycle when no such order exists.
package graph

import "reflect"

// Variable is one named, typed value flowing through a method body: a
// parameter, a frame's declared output, or a DI-resolved service. Variables
// are compared by pointer identity — two Variable values of the same Go
// type are distinct unless they are the same *Variable.
type Variable struct {
	// Name is the local identifier this variable is emitted under.
	Name string

	// Type is the variable's Go type.
	Type reflect.Type

	// Creator is the frame that produces this variable, set by Resolve once
	// placement succeeds. Parameter variables keep a nil Creator.
	Creator *Frame
}

// Param declares a pre-resolved variable available to every frame without a
// producer of its own (e.g. a method parameter, or the request context).
func Param(name string, t reflect.Type) *Variable {
	return &Variable{Name: name, Type: t}
}

// VariableSet is the ordered set of variables visible at a point in the
// graph, passed to Frame.FindVariables so a frame can inspect what is
// already live (e.g. to skip re-requesting a variable it can see by type).
type VariableSet struct {
	order []*Variable
	byVar map[*Variable]struct{}
}

func newVariableSet() *VariableSet {
	return &VariableSet{byVar: make(map[*Variable]struct{})}
}

// NewVariableSet creates an empty set, exported for callers outside this
// package that need to replay live-variable bookkeeping alongside Resolve
// (internal/methodbuilder walking the placed frame list to emit bodies).
func NewVariableSet() *VariableSet {
	return newVariableSet()
}

func (s *VariableSet) add(v *Variable) {
	if _, ok := s.byVar[v]; ok {
		return
	}
	s.byVar[v] = struct{}{}
	s.order = append(s.order, v)
}

// Add is the exported form of add, used by internal/methodbuilder.
func (s *VariableSet) Add(v *Variable) {
	s.add(v)
}

// Contains reports whether v is already live.
func (s *VariableSet) Contains(v *Variable) bool {
	_, ok := s.byVar[v]
	return ok
}

// ByType returns the first live variable assignable to t, if any. Used by
// frames that want to reuse an already-live value instead of declaring a
// fresh read.
func (s *VariableSet) ByType(t reflect.Type) (*Variable, bool) {
	for _, v := range s.order {
		if v.Type == t || (t.Kind() == reflect.Interface && v.Type.Implements(t)) {
			return v, true
		}
	}
	return nil, false
}

// All returns every live variable in the order it became live.
func (s *VariableSet) All() []*Variable {
	out := make([]*Variable, len(s.order))
	copy(out, s.order)
	return out
}
