package pipeline

import (
	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/writer"
)

// AuthenticationStage delegates to a *Chain (mirrors internal/auth
// .ProviderChain almost verbatim) exposed on the generated executor's
// ChainField. It produces bc.Identity or short-circuits to Unauthorized.
type AuthenticationStage struct {
	ReceiverName string
	ChainField   string
}

func (AuthenticationStage) Stage() Stage { return StageAuthentication }

func (s AuthenticationStage) AppendFrames(bc *BuilderContext) error {
	identity := bc.Identity
	ctxVar := bc.CtxVar
	opName := bc.Operation.Name

	bc.Contribute(StageAuthentication, &graph.Frame{
		Label:   "auth:authenticate",
		Creates: []*graph.Variable{identity},
		FindVariables: func(live *graph.VariableSet) []*graph.Variable {
			return []*graph.Variable{ctxVar}
		},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.UsingNamespace("github.com/blueprintapi/blueprint/pkg/models")
			w.Write(identity.Name + ", authErr := " + s.ReceiverName + "." + s.ChainField + ".Authenticate(" + ctxVar.Name + ")")
			w.Write("BLOCK:if authErr != nil")
			w.Write("err = authErr")
			w.Write("return")
			w.FinishBlock()
			w.Write("BLOCK:if " + identity.Name + " == nil")
			w.Write(`err = &models.Error{Kind: models.ErrUnauthorized, Operation: "` + opName + `", Message: "no provider authenticated the request"}`)
			w.Write("return")
			w.FinishBlock()
			return nil
		},
	})
	return nil
}

// AuthorisationStage checks the authenticated Identity's Role against a
// fixed RequiredRole, short-circuiting to Forbidden. Contributes nothing
// when RequiredRole is empty (most operations don't need one).
type AuthorisationStage struct {
	RequiredRole string
}

func (AuthorisationStage) Stage() Stage { return StageAuthorisation }

func (s AuthorisationStage) AppendFrames(bc *BuilderContext) error {
	if s.RequiredRole == "" {
		return nil
	}
	identity := bc.Identity
	opName := bc.Operation.Name
	role := s.RequiredRole

	bc.Contribute(StageAuthorisation, &graph.Frame{
		Label: "authz:role-check",
		FindVariables: func(live *graph.VariableSet) []*graph.Variable {
			return []*graph.Variable{identity}
		},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.UsingNamespace("github.com/blueprintapi/blueprint/pkg/models")
			w.Write(`BLOCK:if ` + identity.Name + `.Role != "` + role + `"`)
			w.Write(`err = &models.Error{Kind: models.ErrForbidden, Operation: "` + opName + `", Message: "role ` + role + ` required"}`)
			w.Write("return")
			w.FinishBlock()
			return nil
		},
	})
	return nil
}
