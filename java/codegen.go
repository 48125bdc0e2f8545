package java

import "go.lsp.dev/protocol"

type OverridableMethod struct {
	Key                string   `json:"key"`
	Name               string   `json:"name"`
	Parameters         []string `json:"parameters"`
	Unimplemented      bool     `json:"unimplemented"`
	DeclaringClass     string   `json:"declaringClass"`
	DeclaringClassType string   `json:"declaringClassType"`
}

type OverridableMethodsResponse struct {
	Type    string              `json:"type"`
	Methods []OverridableMethod `json:"methods"`
}

type AddOverridableMethodParams struct {
	Context            protocol.CodeActionParams `json:"context"`
	OverridableMethods []OverridableMethod       `json:"overridableMethods"`
}

type VariableBinding struct {
	BindingKey string `json:"bindingKey"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	IsField    bool   `json:"isField"`
	IsSelected bool   `json:"isSelected,omitempty"`
}

type CheckHashCodeEqualsResponse struct {
	Type            string            `json:"type"`
	Fields          []VariableBinding `json:"fields"`
	ExistingMethods []string          `json:"existingMethods"`
}

type GenerateHashCodeEqualsParams struct {
	Context    protocol.CodeActionParams `json:"context"`
	Fields     []VariableBinding         `json:"fields"`
	Regenerate bool                      `json:"regenerate"`
}

type ImportCandidate struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	ID                 string `json:"id"`
}

type ImportSelection struct {
	Candidates []ImportCandidate `json:"candidates"`
	Range      protocol.Range    `json:"range"`
}

type CheckToStringResponse struct {
	Type   string            `json:"type"`
	Fields []VariableBinding `json:"fields"`
	Exists bool              `json:"exists"`
}

type GenerateToStringParams struct {
	Context protocol.CodeActionParams `json:"context"`
	Fields  []VariableBinding         `json:"fields"`
}

type AccessorField struct {
	FieldName      string `json:"fieldName"`
	IsStatic       bool   `json:"isStatic"`
	GenerateGetter bool   `json:"generateGetter"`
	GenerateSetter bool   `json:"generateSetter"`
	TypeName       string `json:"typeName"`
}

// AccessorCodeActionParams is a code action request narrowed to one kind of
// accessor.
type AccessorCodeActionParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
	Context      protocol.CodeActionContext      `json:"context"`
	Kind         AccessorKind                    `json:"kind"`
}

// NewAccessorCodeActionParams narrows p to accessors of kind.
func NewAccessorCodeActionParams(p protocol.CodeActionParams, kind AccessorKind) AccessorCodeActionParams {
	return AccessorCodeActionParams{TextDocument: p.TextDocument, Range: p.Range, Context: p.Context, Kind: kind}
}

type GenerateAccessorsParams struct {
	Context   protocol.CodeActionParams `json:"context"`
	Accessors []AccessorField           `json:"accessors"`
}

type MethodBinding struct {
	BindingKey string   `json:"bindingKey"`
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
}

type CheckConstructorsResponse struct {
	Constructors []MethodBinding   `json:"constructors"`
	Fields       []VariableBinding `json:"fields"`
}

type GenerateConstructorsParams struct {
	Context      protocol.CodeActionParams `json:"context"`
	Constructors []MethodBinding           `json:"constructors"`
	Fields       []VariableBinding         `json:"fields"`
}

type DelegateField struct {
	Field           VariableBinding `json:"field"`
	DelegateMethods []MethodBinding `json:"delegateMethods"`
}

type CheckDelegateMethodsResponse struct {
	DelegateFields []DelegateField `json:"delegateFields"`
}

type DelegateEntry struct {
	Field          VariableBinding `json:"field"`
	DelegateMethod MethodBinding   `json:"delegateMethod"`
}

type GenerateDelegateMethodsParams struct {
	Context         protocol.CodeActionParams `json:"context"`
	DelegateEntries []DelegateEntry           `json:"delegateEntries"`
}
