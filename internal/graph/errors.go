package graph

import (
	"strings"

	"github.com/blueprintapi/blueprint/pkg/models"
)

// cycleError builds the ErrPipelineCycle models.Error for the given frame
// path, most recently entered frame last.
func cycleError(operation string, path []*Frame) *models.Error {
	labels := make([]string, len(path))
	for i, f := range path {
		labels[i] = f.Label
	}
	return &models.Error{
		Kind:      models.ErrPipelineCycle,
		Operation: operation,
		Message:   "cycle detected: " + strings.Join(labels, " -> "),
	}
}

// unresolvedServiceError builds the ErrUnresolvedService models.Error for a
// read variable with no producing frame and no DI resolver configured (or a
// DI resolver that itself failed with a plain error). A resolver failure that
// is already a *models.Error is returned unchanged, keeping its Kind.
func unresolvedServiceError(operation string, v *Variable, cause error) *models.Error {
	if be, ok := cause.(*models.Error); ok {
		return be
	}
	msg := "no producer for variable of type " + v.Type.String()
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &models.Error{
		Kind:      models.ErrUnresolvedService,
		Operation: operation,
		Message:   msg,
		Err:       cause,
	}
}
