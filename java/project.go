package java

import "go.lsp.dev/protocol"

type ProjectConfigurationsUpdateParam struct {
	Identifiers []protocol.TextDocumentIdentifier `json:"identifiers"`
}

type BuildProjectParams struct {
	Identifiers []protocol.TextDocumentIdentifier `json:"identifiers"`
	IsFullBuild bool                              `json:"isFullBuild"`
}

type ValidateDocumentParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
}

type SourceAttachmentRequest struct {
	ClassFileURI string                     `json:"classFileUri"`
	Attributes   *SourceAttachmentAttribute `json:"attributes,omitempty"`
}

type SourceAttachmentAttribute struct {
	JarPath                  string `json:"jarPath,omitempty"`
	SourceAttachmentPath     string `json:"sourceAttachmentPath,omitempty"`
	SourceAttachmentEncoding string `json:"sourceAttachmentEncoding,omitempty"`
	CanEditEncoding          bool   `json:"canEditEncoding,omitempty"`
}

type SourceAttachmentResult struct {
	ErrorMessage string                     `json:"errorMessage,omitempty"`
	Attributes   *SourceAttachmentAttribute `json:"attributes,omitempty"`
}

// Err reports ErrorMessage as an *ApplicationError, or nil.
func (r *SourceAttachmentResult) Err() error {
	return applicationError(r.ErrorMessage)
}
