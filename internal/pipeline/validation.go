package pipeline

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/typebuilder"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/expr-lang/expr"
)

// ── Built-in ValidationAttribute kinds ───────────────────────

// Required fails any nil or zero-value property, the simplest rule a
// declared operation can attach to a property.
type Required struct{}

func (Required) Name() string { return "required" }

func (Required) Validate(value any) (bool, string) {
	if value == nil {
		return false, "is required"
	}
	rv := reflect.ValueOf(value)
	if rv.IsZero() {
		return false, "is required"
	}
	return true, ""
}

// Expr evaluates a boolean predicate written against the property value
// with github.com/expr-lang/expr, letting a handler declare a rule like
// "len(value) > 3" without the framework knowing that syntax.
type Expr struct {
	Expression string
}

func (Expr) Name() string { return "expr" }

func (e Expr) Validate(value any) (bool, string) {
	program, err := expr.Compile(e.Expression, expr.Env(map[string]any{"value": value}))
	if err != nil {
		return false, "invalid expression: " + err.Error()
	}
	out, err := expr.Run(program, map[string]any{"value": value})
	if err != nil {
		return false, "expression error: " + err.Error()
	}
	ok, _ := out.(bool)
	if !ok {
		return false, "failed rule: " + e.Expression
	}
	return true, ""
}

// ── Validation stage ──────────────────────────────────────────

// Rule binds one ValidationAttribute to one payload property.
type Rule struct {
	Property  string
	Attribute contracts.ValidationAttribute
}

// ValidationStage loops its declared rules and accumulates a
// validationErrors map, short-circuiting to ValidationFailed when it's
// non-empty, per spec.md §4.7.
type ValidationStage struct {
	ReceiverName string
	Rules        []Rule
}

func (ValidationStage) Stage() Stage { return StageValidation }

// Fields returns one typebuilder.InjectedField per rule (for
// typebuilder.Descriptor.StaticFields), keyed so the
// generated struct holds a live contracts.ValidationAttribute for each —
// the Validation stage invokes it without knowing which concrete rule it
// is, per spec.md §1.
func (s ValidationStage) Fields() []typebuilder.InjectedField {
	fields := make([]typebuilder.InjectedField, len(s.Rules))
	for i := range s.Rules {
		fields[i] = typebuilder.InjectedField{
			Name: ruleFieldName(i),
			Type: reflect.TypeOf((*contracts.ValidationAttribute)(nil)).Elem(),
		}
	}
	return fields
}

func ruleFieldName(i int) string {
	return "rule" + strconv.Itoa(i)
}

func (s ValidationStage) AppendFrames(bc *BuilderContext) error {
	if len(s.Rules) == 0 {
		return nil
	}
	payload := bc.Payload
	opName := bc.Operation.Name
	rules := s.Rules
	receiver := s.ReceiverName

	bc.Contribute(StageValidation, &graph.Frame{
		Label: "validation:attributes",
		FindVariables: func(live *graph.VariableSet) []*graph.Variable {
			return []*graph.Variable{payload}
		},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.UsingNamespace("github.com/blueprintapi/blueprint/pkg/models")
			w.Write("validationErrors := map[string]string{}")
			for i, r := range rules {
				field := receiver + "." + ruleFieldName(i)
				w.Write(fmt.Sprintf("BLOCK:if ok, msg := %s.Validate(%s.%s); !ok", field, payload.Name, r.Property))
				w.Write(fmt.Sprintf("validationErrors[%q] = msg", r.Property))
				w.FinishBlock()
			}
			w.Write("BLOCK:if len(validationErrors) > 0")
			w.Write(`err = &models.Error{Kind: models.ErrValidationFailed, Operation: "` + opName + `", Message: "validation failed", Fields: validationErrors}`)
			w.Write("return")
			w.FinishBlock()
			return nil
		},
	})
	return nil
}
