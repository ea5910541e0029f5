// Package host is Blueprint's ambient composition root: it turns a set of
// declared OperationDefinitions into a running HTTP surface by driving
// every core component in order — catalog build, middleware composition,
// frame-graph resolution, method/type emission, compilation, and registry
// binding — the same way the teacher's pkg/server.New wires its services
// together once at startup.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"reflect"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blueprintapi/blueprint/internal/catalogbuilder"
	"github.com/blueprintapi/blueprint/internal/compiler"
	"github.com/blueprintapi/blueprint/internal/diservice"
	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/methodbuilder"
	"github.com/blueprintapi/blueprint/internal/pipeline"
	"github.com/blueprintapi/blueprint/internal/registry"
	"github.com/blueprintapi/blueprint/internal/typebuilder"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"

	"github.com/rs/zerolog/log"
)

const generatedModulePath = "github.com/blueprintapi/blueprint/generated"

var handlerFieldType = reflect.TypeOf((func(context.Context, any) (any, error))(nil))

// Host owns the compiled executor assembly and the live registry/router it
// feeds.
type Host struct {
	resolver  contracts.ServiceResolver
	router    contracts.RouterAdapter
	logger    contracts.ErrorLogger
	authChain *pipeline.Chain
	telemetry contracts.TelemetrySink

	emitter  *compiler.Emitter
	registry *registry.Registry
	tracer   trace.Tracer

	shutdownTelemetry func(context.Context) error

	filesMu       sync.RWMutex
	files         []contracts.SourceFile
	nameByPayload map[reflect.Type]string
}

// New builds an unconfigured Host. router may be nil, in which case
// NewChiRouterAdapter's default is used.
func New(resolver contracts.ServiceResolver, router contracts.RouterAdapter, authProviders []contracts.AuthProvider, telemetry contracts.TelemetrySink, logger contracts.ErrorLogger) *Host {
	if router == nil {
		router = NewChiRouterAdapter()
	}
	return &Host{
		resolver:  resolver,
		router:    router,
		logger:    logger,
		authChain: pipeline.NewChain(authProviders...),
		telemetry: telemetry,
		emitter:   compiler.New(),
		registry:  registry.New(resolver),
	}
}

// Router exposes the underlying RouterAdapter, e.g. for *ChiRouterAdapter's
// Handler() to hand to an http.Server.
func (h *Host) Router() contracts.RouterAdapter {
	return h.router
}

// opBuild tracks the state one operation's generate step produced, needed
// again once compilation has finished to construct the executor instance
// with the right field values in the right order.
type opBuild struct {
	def          *OperationDefinition
	diProvider   *diservice.Provider
	staticValues []any
}

// Build runs the full compile-time pipeline over operations: catalog
// build, per-operation source generation (concurrent), compilation (traced
// with an OTel span), and registry binding, then mounts one HTTP route per
// declared link.
func (h *Host) Build(ctx context.Context, cfg *Config, operations []OperationDefinition) error {
	tracer, shutdown, err := initTelemetry(cfg.Telemetry)
	if err != nil {
		return err
	}
	h.tracer = tracer
	h.shutdownTelemetry = shutdown

	specs := make([]catalogbuilder.OperationSpec, len(operations))
	for i, op := range operations {
		specs[i] = op.Spec
	}
	descriptors, err := catalogbuilder.Build(specs)
	if err != nil {
		return fmt.Errorf("host: building catalog: %w", err)
	}

	byName := make(map[string]*OperationDefinition, len(operations))
	for i := range operations {
		byName[operations[i].Spec.Name] = &operations[i]
	}

	var (
		buildsMu sync.Mutex
		builds   = make(map[string]*opBuild, len(operations))
	)

	generate := func(d *models.OperationDescriptor) (contracts.SourceFile, error) {
		def := byName[d.Name]
		source, build, err := h.generateOne(d, def)
		if err != nil {
			return contracts.SourceFile{}, err
		}
		buildsMu.Lock()
		builds[d.Name] = build
		buildsMu.Unlock()
		return source, nil
	}

	files, err := h.emitter.Emit(ctx, descriptors, generate)
	if err != nil {
		return fmt.Errorf("host: generating executors: %w", err)
	}

	nameByPayload := make(map[reflect.Type]string, len(descriptors))
	for _, d := range descriptors {
		nameByPayload[d.PayloadType] = d.Name
	}
	h.filesMu.Lock()
	h.files = files
	h.nameByPayload = nameByPayload
	h.filesMu.Unlock()

	compileCtx, span := h.tracer.Start(ctx, "blueprint.compile",
		trace.WithAttributes(attribute.String("assembly", cfg.AssemblyName), attribute.Int("files", len(files))))
	compiled, diags, err := h.emitter.Compile(compileCtx, cfg.AssemblyName, files, cfg.Optimization, cfg.Strategy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return &models.Error{
			Kind:    models.ErrCompilationError,
			Message: fmt.Sprintf("compiling assembly %s: %v (%d diagnostics)", cfg.AssemblyName, err, len(diags)),
			Err:     err,
		}
	}
	span.End()

	for _, ct := range compiled {
		opName := operationNameFromTypeName(ct.TypeName)
		def := byName[opName]
		build := builds[opName]
		if def == nil || build == nil {
			continue
		}

		fieldValues, err := h.fieldValuesFor(ctx, build)
		if err != nil {
			return err
		}

		instance, err := ct.New(fieldValues...)
		if err != nil {
			return fmt.Errorf("host: constructing %s: %w", ct.TypeName, err)
		}

		if err := h.registry.Register(def.Spec.PayloadType, instance); err != nil {
			return err
		}

		for _, link := range def.Spec.Links {
			h.router.Mount(http.MethodPost, link, h.httpHandler(def))
		}
		log.Info().Str("operation", def.Spec.Name).Strs("links", def.Spec.Links).Msg("blueprint: operation mounted")
	}

	h.mountDiagnosticRoutes()

	return nil
}

// mountDiagnosticRoutes wires the demo host's convenience routes: a
// liveness probe and a debug dump of every generated type's source,
// backed by WhatCodeDidIGenerate.
func (h *Host) mountDiagnosticRoutes() {
	h.router.Mount(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	h.router.Mount(http.MethodGet, "/blueprint/debug/generated", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(h.WhatCodeDidIGenerate()))
	})
}

// Shutdown flushes telemetry. Safe to call even if Build failed early.
func (h *Host) Shutdown(ctx context.Context) error {
	if h.shutdownTelemetry == nil {
		return nil
	}
	return h.shutdownTelemetry(ctx)
}

func operationNameFromTypeName(typeName string) string {
	return strings.TrimSuffix(typeName, "Executor")
}

// WhatCodeDidIGenerate returns the concatenated source of every type Build
// generated, per spec.md §6's Introspection contract.
func (h *Host) WhatCodeDidIGenerate() string {
	h.filesMu.RLock()
	defer h.filesMu.RUnlock()
	return h.emitter.WhatCodeDidIGenerate(h.files)
}

// WhatCodeDidIGenerateFor returns the generated source for one operation,
// identified by its payload type — the per-operation counterpart
// WhatCodeDidIGenerate's tree-wide dump doesn't cover.
func (h *Host) WhatCodeDidIGenerateFor(operationType reflect.Type) (string, error) {
	h.filesMu.RLock()
	name, ok := h.nameByPayload[operationType]
	files := h.files
	h.filesMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("host: no operation registered for %s", operationType)
	}
	return h.emitter.WhatCodeDidIGenerateFor(name+"Executor", files)
}

func toTypebuilderFields(fields []diservice.InjectedField) []typebuilder.InjectedField {
	out := make([]typebuilder.InjectedField, len(fields))
	for i, f := range fields {
		out[i] = typebuilder.InjectedField{Name: f.Name, Type: f.Type}
	}
	return out
}

// generateOne builds one operation's middleware-composed frame graph and
// renders its executor source, returning the bookkeeping generateOne's
// caller needs once compilation succeeds.
func (h *Host) generateOne(d *models.OperationDescriptor, def *OperationDefinition) (contracts.SourceFile, *opBuild, error) {
	if def == nil {
		return contracts.SourceFile{}, nil, &models.Error{
			Kind:      models.ErrMissingHandler,
			Operation: d.Name,
			Message:   "no OperationDefinition registered for this descriptor",
		}
	}

	typeName := d.Name + "Executor"
	pkgName := strings.ToLower(d.Name)
	namespace := generatedModulePath + "/" + pkgName

	g := graph.New(d.Name)
	ctxVar := graph.Param("ctx", reflect.TypeOf((*context.Context)(nil)).Elem())
	requestVar := graph.Param("req", d.PayloadType)
	identityVar := graph.Param("identity", reflect.TypeOf((*models.Identity)(nil)))

	bc := &pipeline.BuilderContext{
		Operation:  d,
		Graph:      g,
		CtxVar:     ctxVar,
		RequestVar: requestVar,
		Identity:   identityVar,
	}
	var resultVar *graph.Variable
	if d.RequiresReturnValue {
		resultVar = &graph.Variable{Name: "result", Type: def.ReturnType}
		bc.Result = resultVar
	}

	builders := []pipeline.MiddlewareBuilder{pipeline.ExceptionStage{}, pipeline.SetupStage{}}
	if def.RequireAuth || def.RequiredRole != "" {
		builders = append(builders, pipeline.AuthenticationStage{ReceiverName: "e", ChainField: "authChain"})
	}
	if def.RequiredRole != "" {
		builders = append(builders, pipeline.AuthorisationStage{RequiredRole: def.RequiredRole})
	}
	validation := pipeline.ValidationStage{ReceiverName: "e", Rules: def.ValidationRules}
	builders = append(builders, validation)
	if def.OperationCheck != nil {
		builders = append(builders, pipeline.OperationChecksStage{ReceiverName: "e", FieldName: "operationCheck"})
	}

	handlerBindings := make([]pipeline.HandlerBinding, len(def.Handlers))
	for i := range def.Handlers {
		handlerBindings[i] = pipeline.HandlerBinding{
			AcceptedType: def.Handlers[i].AcceptedType,
			FieldName:    fmt.Sprintf("handler%d", i),
		}
	}
	builders = append(builders, pipeline.ExecutionStage{
		ReceiverName:        "e",
		Handlers:            handlerBindings,
		RequiresReturnValue: d.RequiresReturnValue,
	})
	if def.Observe {
		builders = append(builders, pipeline.PostExecuteStage{ReceiverName: "e", FieldName: "telemetry"})
	}

	if err := pipeline.Compose(bc, builders); err != nil {
		return contracts.SourceFile{}, nil, err
	}

	diProvider := diservice.New(d.Name, h.resolver, "e", "resolver", ctxVar)

	// Prime diProvider by resolving the graph once before rendering the
	// struct: typebuilder.Build writes the struct and constructor ahead of
	// the method body, so every Singleton field diProvider will hoist must
	// already be known. graph.Resolve is side-effect-free on the graph
	// itself (fresh placement state per call), so methodbuilder.Build's own
	// Resolve call during method emission reaches the same placement.
	params := []*graph.Variable{ctxVar, requestVar}
	if _, err := g.Resolve(params, diProvider.Frame); err != nil {
		return contracts.SourceFile{}, nil, err
	}

	staticFields := make([]typebuilder.InjectedField, 0, len(def.ValidationRules)+len(def.Handlers)+3)
	staticValues := make([]any, 0, cap(staticFields))
	ruleFields := validation.Fields()
	for i, f := range ruleFields {
		staticFields = append(staticFields, f)
		staticValues = append(staticValues, def.ValidationRules[i].Attribute)
	}
	for i, hd := range def.Handlers {
		staticFields = append(staticFields, typebuilder.InjectedField{Name: fmt.Sprintf("handler%d", i), Type: handlerFieldType})
		staticValues = append(staticValues, hd.Handle)
	}
	if def.RequireAuth || def.RequiredRole != "" {
		staticFields = append(staticFields, typebuilder.InjectedField{Name: "authChain", Type: reflect.TypeOf((*contracts.AuthProvider)(nil)).Elem()})
		staticValues = append(staticValues, contracts.AuthProvider(h.authChain))
	}
	if def.OperationCheck != nil {
		staticFields = append(staticFields, typebuilder.InjectedField{Name: "operationCheck", Type: reflect.TypeOf(def.OperationCheck)})
		staticValues = append(staticValues, def.OperationCheck)
	}
	if def.Observe {
		staticFields = append(staticFields, typebuilder.InjectedField{Name: "telemetry", Type: reflect.TypeOf((*contracts.TelemetrySink)(nil)).Elem()})
		staticValues = append(staticValues, h.telemetry)
	}

	methodDesc := methodbuilder.Descriptor{
		Name:         "Handle",
		ReceiverName: "e",
		ReceiverType: typeName,
		Params: []methodbuilder.Param{
			{Variable: ctxVar},
			{Variable: requestVar},
		},
		RequiresReturnValue: d.RequiresReturnValue,
		ReturnType:          resultVar,
	}

	typeDesc := typebuilder.Descriptor{
		Namespace:      pkgName,
		TypeName:       typeName,
		TypeComment:    typeName + " is the generated executor for the " + d.Name + " operation.",
		InjectedFields: toTypebuilderFields(diProvider.Singletons()),
		StaticFields: append(
			[]typebuilder.InjectedField{{Name: "resolver", Type: reflect.TypeOf((*contracts.ServiceResolver)(nil)).Elem()}},
			staticFields...,
		),
		Methods: []typebuilder.MethodEmitter{
			func(w *writer.Writer) error {
				return methodbuilder.Build(w, d.Name, methodDesc, g, diProvider.Frame)
			},
		},
	}

	source, err := typebuilder.Build(d.Name, typeDesc)
	if err != nil {
		return contracts.SourceFile{}, nil, err
	}

	build := &opBuild{
		def:          def,
		diProvider:   diProvider,
		staticValues: append([]any{h.resolver}, staticValues...),
	}

	return contracts.SourceFile{
		Path:      path.Join(namespace, typeName+".go"),
		Namespace: namespace,
		TypeName:  typeName,
		Source:    source,
	}, build, nil
}

// fieldValuesFor resolves every Singleton service diProvider hoisted to a
// constructor-injected field, then concatenates them with the
// build-time-known static field values in the exact order
// typebuilder.Descriptor.allFields() rendered them — InjectedFields first,
// StaticFields second, with "resolver" leading StaticFields (it is the first
// entry of StaticFields in generateOne, ahead of rules/handlers/chain).
func (h *Host) fieldValuesFor(ctx context.Context, build *opBuild) ([]any, error) {
	singletons := build.diProvider.Singletons()
	values := make([]any, 0, len(singletons)+len(build.staticValues))
	for _, f := range singletons {
		v, err := h.resolver.Resolve(ctx, f.Type)
		if err != nil {
			return nil, &models.Error{
				Kind:      models.ErrUnresolvedService,
				Operation: build.def.Spec.Name,
				Message:   fmt.Sprintf("resolving singleton field %s (%s): %v", f.Name, f.Type, err),
				Err:       err,
			}
		}
		values = append(values, v)
	}
	values = append(values, build.staticValues...)
	return values, nil
}

// httpHandler adapts one operation to an http.HandlerFunc: decode the JSON
// body into a fresh payload value, dispatch through the registry, and
// write the uniform OperationResult back as JSON.
func (h *Host) httpHandler(def *OperationDefinition) http.HandlerFunc {
	payloadType := def.Spec.PayloadType
	return func(w http.ResponseWriter, r *http.Request) {
		payload := reflect.New(payloadType)
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(payload.Interface()); err != nil {
				writeResult(w, http.StatusBadRequest, &models.OperationResult{
					Kind: models.ErrValidationFailed, Message: "malformed request body: " + err.Error(),
				})
				return
			}
		}

		result, err := h.registry.ExecuteWithNewScopeAsync(r.Context(), payload.Elem().Interface(), nil)
		if err != nil {
			if h.logger != nil {
				h.logger.LogError(r.Context(), err, map[string]any{"operation": def.Spec.Name})
			}
			errResult := &models.OperationResult{Kind: models.ErrUnhandledException, Message: err.Error()}
			if be, ok := err.(*models.Error); ok {
				errResult.Kind = be.Kind
				errResult.Message = be.Message
			}
			writeResult(w, statusFor(errResult), errResult)
			return
		}
		writeResult(w, statusFor(result), result)
	}
}

func statusFor(result *models.OperationResult) int {
	if result.Ok {
		return http.StatusOK
	}
	switch result.Kind {
	case models.ErrValidationFailed:
		return http.StatusBadRequest
	case models.ErrUnauthorized:
		return http.StatusUnauthorized
	case models.ErrForbidden:
		return http.StatusForbidden
	case models.ErrMissingHandler:
		return http.StatusNotFound
	case models.ErrCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(w http.ResponseWriter, status int, result *models.OperationResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
