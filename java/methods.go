// Package java declares the method catalog of the JVM language backend's
// editor extension protocol: enumerations, payload types and one typed
// descriptor per wire method.
package java

import (
	"github.com/goccy/go-json"
	"go.lsp.dev/protocol"

	"java-lsp-rpc/catalog"
)

// Server to client notifications.
var (
	StatusNotification        = catalog.NewServerNotification[StatusReport]("language/status")
	ProgressNotification      = catalog.NewServerNotification[ProgressReport]("$/progress")
	ActionableNotification    = catalog.NewServerNotification[ActionableMessage]("language/actionableNotification")
	LanguageEventNotification = catalog.NewServerNotification[EventNotification]("language/eventNotification")
	ServerNotification        = catalog.NewServerNotification[protocol.ExecuteCommandParams]("workspace/notify")
)

// ExecuteClientCommandRequest is sent by the server; its result is whatever
// the client command returns.
var ExecuteClientCommandRequest = catalog.NewServerRequest[protocol.ExecuteCommandParams, json.RawMessage]("workspace/executeClientCommand")

// Client to server notifications.
var (
	ProjectConfigurationUpdateNotification  = catalog.NewNotification[protocol.TextDocumentIdentifier]("java/projectConfigurationUpdate")
	ProjectConfigurationsUpdateNotification = catalog.NewNotification[ProjectConfigurationsUpdateParam]("java/projectConfigurationsUpdate")
	ValidateDocumentNotification            = catalog.NewNotification[ValidateDocumentParams]("java/validateDocument")
)

// Client to server requests.
var (
	ClassFileContentsRequest = catalog.NewRequest[protocol.TextDocumentIdentifier, string]("java/classFileContents")
	CompileWorkspaceRequest  = catalog.NewRequest[bool, CompileWorkspaceStatus]("java/buildWorkspace")
	BuildProjectRequest      = catalog.NewRequest[BuildProjectParams, CompileWorkspaceStatus]("java/buildProjects")

	ListOverridableMethodsRequest     = catalog.NewRequest[protocol.CodeActionParams, OverridableMethodsResponse]("java/listOverridableMethods")
	AddOverridableMethodsRequest      = catalog.NewRequest[AddOverridableMethodParams, *protocol.WorkspaceEdit]("java/addOverridableMethods")
	CheckHashCodeEqualsStatusRequest  = catalog.NewRequest[protocol.CodeActionParams, CheckHashCodeEqualsResponse]("java/checkHashCodeEqualsStatus")
	GenerateHashCodeEqualsRequest     = catalog.NewRequest[GenerateHashCodeEqualsParams, *protocol.WorkspaceEdit]("java/generateHashCodeEquals")
	OrganizeImportsRequest            = catalog.NewRequest[protocol.CodeActionParams, *protocol.WorkspaceEdit]("java/organizeImports")
	CleanupRequest                    = catalog.NewRequest[protocol.TextDocumentIdentifier, *protocol.WorkspaceEdit]("java/cleanup")
	CheckToStringStatusRequest        = catalog.NewRequest[protocol.CodeActionParams, CheckToStringResponse]("java/checkToStringStatus")
	GenerateToStringRequest           = catalog.NewRequest[GenerateToStringParams, *protocol.WorkspaceEdit]("java/generateToString")
	AccessorCodeActionRequest         = catalog.NewRequest[AccessorCodeActionParams, []AccessorField]("java/resolveUnimplementedAccessors")
	GenerateAccessorsRequest          = catalog.NewRequest[GenerateAccessorsParams, *protocol.WorkspaceEdit]("java/generateAccessors")
	CheckConstructorStatusRequest     = catalog.NewRequest[protocol.CodeActionParams, CheckConstructorsResponse]("java/checkConstructorsStatus")
	GenerateConstructorsRequest       = catalog.NewRequest[GenerateConstructorsParams, *protocol.WorkspaceEdit]("java/generateConstructors")
	CheckDelegateMethodsStatusRequest = catalog.NewRequest[protocol.CodeActionParams, CheckDelegateMethodsResponse]("java/checkDelegateMethodsStatus")
	GenerateDelegateMethodsRequest    = catalog.NewRequest[GenerateDelegateMethodsParams, *protocol.WorkspaceEdit]("java/generateDelegateMethods")

	GetRefactorEditRequest             = catalog.NewRequest[GetRefactorEditParams, RefactorWorkspaceEdit]("java/getRefactorEdit")
	GetChangeSignatureInfoRequest      = catalog.NewRequest[protocol.CodeActionParams, ChangeSignatureInfo]("java/getChangeSignatureInfo")
	InferSelectionRequest              = catalog.NewRequest[InferSelectionParams, []SelectionInfo]("java/inferSelection")
	GetMoveDestinationsRequest         = catalog.NewRequest[MoveParams, MoveDestinationsResponse]("java/getMoveDestinations")
	MoveRequest                        = catalog.NewRequest[MoveParams, RefactorWorkspaceEdit]("java/move")
	SearchSymbolsRequest               = catalog.NewRequest[SearchSymbolParams, []protocol.SymbolInformation]("java/searchSymbols")
	FindLinksRequest                   = catalog.NewRequest[FindLinksParams, []LinkLocation]("java/findLinks")
	WillRenameFilesRequest             = catalog.NewRequest[RenameFilesParams, *protocol.WorkspaceEdit]("workspace/willRenameFiles")
	CheckExtractInterfaceStatusRequest = catalog.NewRequest[protocol.CodeActionParams, CheckExtractInterfaceStatusResponse]("java/checkExtractInterfaceStatus")
)

// Entries lists every descriptor this package declares.
func Entries() []catalog.Entry {
	return []catalog.Entry{
		StatusNotification,
		ProgressNotification,
		ActionableNotification,
		LanguageEventNotification,
		ServerNotification,
		ExecuteClientCommandRequest,
		ProjectConfigurationUpdateNotification,
		ProjectConfigurationsUpdateNotification,
		ValidateDocumentNotification,
		ClassFileContentsRequest,
		CompileWorkspaceRequest,
		BuildProjectRequest,
		ListOverridableMethodsRequest,
		AddOverridableMethodsRequest,
		CheckHashCodeEqualsStatusRequest,
		GenerateHashCodeEqualsRequest,
		OrganizeImportsRequest,
		CleanupRequest,
		CheckToStringStatusRequest,
		GenerateToStringRequest,
		AccessorCodeActionRequest,
		GenerateAccessorsRequest,
		CheckConstructorStatusRequest,
		GenerateConstructorsRequest,
		CheckDelegateMethodsStatusRequest,
		GenerateDelegateMethodsRequest,
		GetRefactorEditRequest,
		GetChangeSignatureInfoRequest,
		InferSelectionRequest,
		GetMoveDestinationsRequest,
		MoveRequest,
		SearchSymbolsRequest,
		FindLinksRequest,
		WillRenameFilesRequest,
		CheckExtractInterfaceStatusRequest,
	}
}

// Catalog returns a new catalog holding every method of the protocol. The
// caller may register more methods on it.
func Catalog() *catalog.Catalog {
	return catalog.MustNew(Entries()...)
}
