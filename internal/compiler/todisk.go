package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"reflect"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// compileToDisk implements CompileStrategy.ToDisk: files are written under
// a unique temp directory named from assemblyName and compiled with
// `go build -buildmode=plugin`, the only mechanism the Go toolchain itself
// offers for binding freshly-compiled code back into a running process —
// stdlib `plugin` has no third-party alternative.
func compileToDisk(ctx context.Context, assemblyName string, files []contracts.SourceFile, optimization contracts.OptimizationLevel) ([]contracts.CompiledType, []contracts.Diagnostic, error) {
	dir, err := os.MkdirTemp("", "blueprint-"+assemblyName+"-*")
	if err != nil {
		return nil, nil, fmt.Errorf("compiler: creating build dir: %w", err)
	}

	for _, f := range files {
		full := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, nil, fmt.Errorf("compiler: preparing %s: %w", f.Path, err)
		}
		if err := os.WriteFile(full, []byte(f.Source), 0o644); err != nil {
			return nil, nil, fmt.Errorf("compiler: writing %s: %w", f.Path, err)
		}
	}

	soPath := filepath.Join(dir, assemblyName+".so")
	args := []string{"build", "-buildmode=plugin", "-o", soPath}
	if optimization == contracts.Debug {
		args = append(args, "-gcflags=all=-N -l")
	}
	args = append(args, "./...")

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, []contracts.Diagnostic{{
			File:    dir,
			Message: string(out),
			Fatal:   true,
		}}, fmt.Errorf("compiler: go build -buildmode=plugin: %w", err)
	}

	p, err := plugin.Open(soPath)
	if err != nil {
		return nil, nil, fmt.Errorf("compiler: opening plugin: %w", err)
	}

	compiled := make([]contracts.CompiledType, 0, len(files))
	var diags []contracts.Diagnostic
	for _, f := range files {
		sym, err := p.Lookup("New" + f.TypeName)
		if err != nil {
			diags = append(diags, contracts.Diagnostic{File: f.Path, Message: err.Error(), Fatal: true})
			continue
		}
		ctor := reflect.ValueOf(sym)
		compiled = append(compiled, contracts.CompiledType{
			Namespace: f.Namespace,
			TypeName:  f.TypeName,
			GoType:    ctor.Type().Out(0),
			New:       newBinding(ctor),
		})
	}
	return compiled, diags, nil
}
