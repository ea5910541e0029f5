package compiler

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/blueprintapi/blueprint/pkg/bprt"
	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// symbols is the hand-maintained equivalent of what `yaegi extract` would
// generate for Blueprint's own public packages: the exported surface the
// interpreter needs in scope so generated executors can import
// pkg/models, pkg/contracts, and pkg/bprt like any other Go code.
var symbols = interp.Exports{
	"github.com/blueprintapi/blueprint/pkg/models/models": {
		"Error":               reflect.ValueOf((*models.Error)(nil)),
		"OperationDescriptor": reflect.ValueOf((*models.OperationDescriptor)(nil)),
		"OperationResult":     reflect.ValueOf((*models.OperationResult)(nil)),
		"Identity":            reflect.ValueOf((*models.Identity)(nil)),
		"ErrUnresolvedService":  reflect.ValueOf(models.ErrUnresolvedService),
		"ErrMissingHandler":     reflect.ValueOf(models.ErrMissingHandler),
		"ErrMissingReturnValue": reflect.ValueOf(models.ErrMissingReturnValue),
		"ErrDuplicateInjected":  reflect.ValueOf(models.ErrDuplicateInjected),
		"ErrPipelineCycle":      reflect.ValueOf(models.ErrPipelineCycle),
		"ErrCompilationError":   reflect.ValueOf(models.ErrCompilationError),
		"ErrValidationFailed":   reflect.ValueOf(models.ErrValidationFailed),
		"ErrUnauthorized":       reflect.ValueOf(models.ErrUnauthorized),
		"ErrForbidden":          reflect.ValueOf(models.ErrForbidden),
		"ErrUnhandledException": reflect.ValueOf(models.ErrUnhandledException),
		"ErrCancelled":          reflect.ValueOf(models.ErrCancelled),
	},
	"github.com/blueprintapi/blueprint/pkg/contracts/contracts": {
		"Singleton": reflect.ValueOf(contracts.Singleton),
		"Scoped":    reflect.ValueOf(contracts.Scoped),
		"Transient": reflect.ValueOf(contracts.Transient),
	},
	"github.com/blueprintapi/blueprint/pkg/bprt/bprt": {
		"RecoverToError": reflect.ValueOf(bprt.RecoverToError),
		"AsError":        reflect.ValueOf(bprt.AsError),
	},
}
