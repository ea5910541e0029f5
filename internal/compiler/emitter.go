// Package compiler is the Assembly Emitter — C8 in SPEC_FULL.md §4.8. It
// renders one source file per operation type concurrently, concatenates
// them deterministically for WhatCodeDidIGenerate, and compiles the closed
// set into runnable types through one of two CompileStrategy backends.
package compiler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// GenerateFunc renders one operation descriptor into its generated source
// file — typically internal/typebuilder.Build wired up by pkg/host.
type GenerateFunc func(descriptor *models.OperationDescriptor) (contracts.SourceFile, error)

// Emitter drives concurrent per-type generation and single-writer
// compilation for one assembly.
type Emitter struct {
	compileOnce singleflight.Group
}

// New creates an Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Emit runs generate for every operation concurrently (golang.org/x/sync
// /errgroup) and returns the resulting files sorted by Path — generation
// order must never leak into emitted output, only the sort does.
func (e *Emitter) Emit(ctx context.Context, operations []*models.OperationDescriptor, generate GenerateFunc) ([]contracts.SourceFile, error) {
	files := make([]contracts.SourceFile, len(operations))

	g, _ := errgroup.WithContext(ctx)
	for i, op := range operations {
		i, op := i, op
		g.Go(func() error {
			file, err := generate(op)
			if err != nil {
				return err
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// WhatCodeDidIGenerate concatenates every file's source in Path order, the
// deterministic dump spec.md §8's "source determinism" property checks
// against.
func (e *Emitter) WhatCodeDidIGenerate(files []contracts.SourceFile) string {
	sorted := make([]contracts.SourceFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var b strings.Builder
	for _, f := range sorted {
		b.WriteString(f.Source)
		if !strings.HasSuffix(f.Source, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WhatCodeDidIGenerateFor returns one generated file's source, matched by
// its TypeName, per spec.md §6's "Introspection (out)" pair — the
// per-operation counterpart to WhatCodeDidIGenerate. pkg/host resolves an
// operationType to the TypeName it compiled to before calling this.
func (e *Emitter) WhatCodeDidIGenerateFor(typeName string, files []contracts.SourceFile) (string, error) {
	for _, f := range files {
		if f.TypeName == typeName {
			return f.Source, nil
		}
	}
	return "", fmt.Errorf("compiler: no generated source for type %q", typeName)
}

type compileResult struct {
	compiled []contracts.CompiledType
	diags    []contracts.Diagnostic
}

// Compile implements contracts.Compiler. Concurrent calls sharing the same
// assemblyName collapse onto a single in-flight compilation
// (golang.org/x/sync/singleflight). Calls with different assemblyNames are
// neither serialized nor rejected; they compile concurrently.
func (e *Emitter) Compile(ctx context.Context, assemblyName string, files []contracts.SourceFile, optimization contracts.OptimizationLevel, strategy contracts.CompileStrategy) ([]contracts.CompiledType, []contracts.Diagnostic, error) {
	v, err, _ := e.compileOnce.Do(assemblyName, func() (any, error) {
		var (
			res compileResult
			err error
		)
		switch strategy {
		case contracts.ToDisk:
			res.compiled, res.diags, err = compileToDisk(ctx, assemblyName, files, optimization)
		default:
			res.compiled, res.diags, err = compileInMemory(files)
		}
		return res, err
	})
	if err != nil {
		if res, ok := v.(compileResult); ok {
			return res.compiled, res.diags, err
		}
		return nil, nil, err
	}
	res := v.(compileResult)
	return res.compiled, res.diags, nil
}
