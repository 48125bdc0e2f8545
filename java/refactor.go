package java

import (
	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"java-lsp-rpc/message"
)

type RenamePosition struct {
	URI    string `json:"uri"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type RefactorWorkspaceEdit struct {
	Edit         protocol.WorkspaceEdit `json:"edit"`
	Command      *protocol.Command      `json:"command,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
}

// Err reports ErrorMessage as an *ApplicationError, or nil.
func (r *RefactorWorkspaceEdit) Err() error {
	return applicationError(r.ErrorMessage)
}

type GetRefactorEditParams struct {
	Command          string                     `json:"command"`
	Context          protocol.CodeActionParams  `json:"context"`
	Options          protocol.FormattingOptions `json:"options"`
	CommandArguments []json.RawMessage          `json:"commandArguments"`
}

// ChangeSignatureInfo leaves Parameters and Exceptions opaque; their shape is
// defined by the refactoring that consumes them.
type ChangeSignatureInfo struct {
	MethodIdentifier string          `json:"methodIdentifier"`
	Modifier         string          `json:"modifier"`
	ReturnType       string          `json:"returnType"`
	MethodName       string          `json:"methodName"`
	Parameters       json.RawMessage `json:"parameters"`
	Exceptions       json.RawMessage `json:"exceptions"`
	ErrorMessage     string          `json:"errorMessage"`
}

// Err reports ErrorMessage as an *ApplicationError, or nil.
func (r *ChangeSignatureInfo) Err() error {
	return applicationError(r.ErrorMessage)
}

type SelectionInfo struct {
	Name   string   `json:"name"`
	Length int      `json:"length"`
	Offset int      `json:"offset"`
	Params []string `json:"params,omitempty"`
}

type InferSelectionParams struct {
	Command string                    `json:"command"`
	Context protocol.CodeActionParams `json:"context"`
}

type PackageNode struct {
	DisplayName            string `json:"displayName"`
	URI                    string `json:"uri"`
	Path                   string `json:"path"`
	Project                string `json:"project"`
	IsDefaultPackage       bool   `json:"isDefaultPackage"`
	IsParentOfSelectedFile bool   `json:"isParentOfSelectedFile"`
}

// MoveParams.Destination is a PackageNode for package moves and a type or
// resource descriptor for the other move kinds.
type MoveParams struct {
	MoveKind         string                    `json:"moveKind"`
	SourceURIs       []string                  `json:"sourceUris"`
	Params           protocol.CodeActionParams `json:"params"`
	Destination      json.RawMessage           `json:"destination,omitempty"`
	UpdateReferences *bool                     `json:"updateReferences,omitempty"`
}

// SetDestination encodes v as the move destination.
func (p *MoveParams) SetDestination(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	p.Destination = raw
	return nil
}

// PackageDestination decodes Destination as a package node.
func (p MoveParams) PackageDestination() (*PackageNode, error) {
	if len(p.Destination) == 0 {
		return nil, nil
	}
	var node PackageNode
	if err := json.Unmarshal(p.Destination, &node); err != nil {
		return nil, errors.WrapWith(err, message.ErrDecode)
	}
	return &node, nil
}

type MoveDestinationsResponse struct {
	ErrorMessage string            `json:"errorMessage,omitempty"`
	Destinations []json.RawMessage `json:"destinations"`
}

// Err reports ErrorMessage as an *ApplicationError, or nil.
func (r *MoveDestinationsResponse) Err() error {
	return applicationError(r.ErrorMessage)
}

// Packages decodes every destination as a package node.
func (r *MoveDestinationsResponse) Packages() ([]PackageNode, error) {
	out := make([]PackageNode, 0, len(r.Destinations))
	for i, raw := range r.Destinations {
		var node PackageNode
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, errors.WithDetails(errors.WrapWith(err, message.ErrDecode), "index", i)
		}
		out = append(out, node)
	}
	return out, nil
}

type SearchSymbolParams struct {
	Query       string `json:"query"`
	ProjectName string `json:"projectName"`
	MaxResults  int    `json:"maxResults,omitempty"`
	SourceOnly  bool   `json:"sourceOnly,omitempty"`
}

type FindLinksParams struct {
	Type     string                              `json:"type"`
	Position protocol.TextDocumentPositionParams `json:"position"`
}

type LinkLocation struct {
	URI         protocol.DocumentURI `json:"uri"`
	Range       protocol.Range       `json:"range"`
	DisplayName string               `json:"displayName"`
	Kind        string               `json:"kind"`
}

func (l LinkLocation) Location() protocol.Location {
	return protocol.Location{URI: l.URI, Range: l.Range}
}

type FileRename struct {
	OldURI uri.URI `json:"oldUri"`
	NewURI uri.URI `json:"newUri"`
}

type RenameFilesParams struct {
	Files []FileRename `json:"files"`
}

type Member struct {
	Name             string   `json:"name"`
	TypeName         string   `json:"typeName"`
	Parameters       []string `json:"parameters"`
	HandleIdentifier string   `json:"handleIdentifier"`
}

type CheckExtractInterfaceStatusResponse struct {
	Members             []Member                 `json:"members"`
	SubTypeName         string                   `json:"subTypeName"`
	DestinationResponse MoveDestinationsResponse `json:"destinationResponse"`
}
