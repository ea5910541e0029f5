package graph

import "github.com/blueprintapi/blueprint/internal/writer"

// Frame is one unit of a generated method body: it contributes zero or more
// Variables and reads zero or more Variables, and knows how to emit its own
// source text once everything it reads is live.
type Frame struct {
	// Label identifies the frame in cycle diagnostics, e.g.
	// "Validation:Required(email)".
	Label string

	// IsAsync marks a frame whose underlying operation is asynchronous in
	// the originating system. Go has no async/await; Resolve places
	// IsAsync frames in strict call order like any other frame, and no
	// package reads the flag: it changes neither placement nor emission.
	IsAsync bool

	// Stage orders contribution: frames are attempted for placement in
	// (Stage, InsertionIndex) order, the tie-break rule of spec.md §4.3.
	Stage int

	// InsertionIndex is the order this frame was contributed within its
	// stage, assigned by Graph.Contribute.
	InsertionIndex int

	// Creates lists the variables this frame produces, in declaration
	// order. A frame with no reads and one Creates entry is a pure
	// producer (e.g. a DI-resolved service fetch).
	Creates []*Variable

	// FindVariables reports the variables this frame reads, given the set
	// of variables already live at the point Resolve is considering it.
	// Returning a variable not present in live and not produced by any
	// frame triggers DI resolution (internal/diservice) or
	// ErrUnresolvedService.
	FindVariables func(live *VariableSet) []*Variable

	// Emit writes this frame's body to w once everything FindVariables
	// returned is live.
	Emit func(w *writer.Writer, live *VariableSet) error
}
