package compiler

import (
	"fmt"
	"path"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// compileInMemory implements CompileStrategy.InMemory: generated source is
// handed to an embedded Go interpreter so it runs in-process with no files
// touching disk, the literal reading of "invokes an in-process compiler".
func compileInMemory(files []contracts.SourceFile) ([]contracts.CompiledType, []contracts.Diagnostic, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, nil, fmt.Errorf("compiler: loading stdlib symbols: %w", err)
	}
	if err := i.Use(symbols); err != nil {
		return nil, nil, fmt.Errorf("compiler: loading blueprint symbols: %w", err)
	}

	var (
		compiled []contracts.CompiledType
		diags    []contracts.Diagnostic
		fatal    bool
	)

	for _, f := range files {
		if _, err := i.Eval(f.Source); err != nil {
			diags = append(diags, contracts.Diagnostic{File: f.Path, Message: err.Error(), Fatal: true})
			fatal = true
			continue
		}

		pkgName := path.Base(f.Namespace)
		ctor, err := i.Eval(pkgName + ".New" + f.TypeName)
		if err != nil {
			diags = append(diags, contracts.Diagnostic{File: f.Path, Message: err.Error(), Fatal: true})
			fatal = true
			continue
		}

		compiled = append(compiled, contracts.CompiledType{
			Namespace: f.Namespace,
			TypeName:  f.TypeName,
			GoType:    ctor.Type().Out(0),
			New:       newBinding(ctor),
		})
	}

	if fatal {
		return compiled, diags, fmt.Errorf("compiler: in-memory compilation failed for %d file(s)", countFatal(diags))
	}
	return compiled, diags, nil
}

// newBinding wraps a yaegi-resolved constructor reflect.Value into the
// contracts.CompiledType.New shape: variadic injected-field arguments in
// declaration order, one constructed instance back.
func newBinding(ctor reflect.Value) func(fields ...any) (any, error) {
	return func(fields ...any) (any, error) {
		args := make([]reflect.Value, len(fields))
		for i, f := range fields {
			args[i] = reflect.ValueOf(f)
		}
		out := ctor.Call(args)
		if len(out) == 0 {
			return nil, fmt.Errorf("compiler: constructor returned no value")
		}
		return out[0].Interface(), nil
	}
}

func countFatal(diags []contracts.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Fatal {
			n++
		}
	}
	return n
}
