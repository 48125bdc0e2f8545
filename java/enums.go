package java

import "strconv"

// MessageType mirrors the LSP window message severity.
type MessageType int

const (
	MessageError   MessageType = 1
	MessageWarning MessageType = 2
	MessageInfo    MessageType = 3
	MessageLog     MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case MessageError:
		return "error"
	case MessageWarning:
		return "warning"
	case MessageInfo:
		return "info"
	case MessageLog:
		return "log"
	}
	return "MessageType(" + strconv.Itoa(int(t)) + ")"
}

// FeatureStatus is how a backend feature was switched on.
type FeatureStatus int

const (
	FeatureDisabled    FeatureStatus = 0
	FeatureInteractive FeatureStatus = 1
	FeatureAutomatic   FeatureStatus = 2
)

func (s FeatureStatus) String() string {
	switch s {
	case FeatureDisabled:
		return "disabled"
	case FeatureInteractive:
		return "interactive"
	case FeatureAutomatic:
		return "automatic"
	}
	return "FeatureStatus(" + strconv.Itoa(int(s)) + ")"
}

// EventType tags a language/eventNotification payload.
type EventType int

const (
	EventClasspathUpdated           EventType = 100
	EventProjectsImported           EventType = 200
	EventProjectsDeleted            EventType = 210
	EventIncompatibleGradleJdkIssue EventType = 300
	EventUpgradeGradleWrapper       EventType = 400
	EventSourceInvalidated          EventType = 500
)

func (e EventType) String() string {
	switch e {
	case EventClasspathUpdated:
		return "classpathUpdated"
	case EventProjectsImported:
		return "projectsImported"
	case EventProjectsDeleted:
		return "projectsDeleted"
	case EventIncompatibleGradleJdkIssue:
		return "incompatibleGradleJdkIssue"
	case EventUpgradeGradleWrapper:
		return "upgradeGradleWrapper"
	case EventSourceInvalidated:
		return "sourceInvalidated"
	}
	return "EventType(" + strconv.Itoa(int(e)) + ")"
}

// CompileWorkspaceStatus is the result of a build request.
type CompileWorkspaceStatus int

const (
	CompileFailed    CompileWorkspaceStatus = 0
	CompileSucceed   CompileWorkspaceStatus = 1
	CompileWithError CompileWorkspaceStatus = 2
	CompileCancelled CompileWorkspaceStatus = 3
)

func (s CompileWorkspaceStatus) String() string {
	switch s {
	case CompileFailed:
		return "failed"
	case CompileSucceed:
		return "succeed"
	case CompileWithError:
		return "withError"
	case CompileCancelled:
		return "cancelled"
	}
	return "CompileWorkspaceStatus(" + strconv.Itoa(int(s)) + ")"
}

type AccessorKind int

const (
	AccessorGetter AccessorKind = 0
	AccessorSetter AccessorKind = 1
	AccessorBoth   AccessorKind = 2
)

func (k AccessorKind) String() string {
	switch k {
	case AccessorGetter:
		return "getter"
	case AccessorSetter:
		return "setter"
	case AccessorBoth:
		return "both"
	}
	return "AccessorKind(" + strconv.Itoa(int(k)) + ")"
}

// ProgressKind is the "kind" member of a work done progress value.
type ProgressKind string

const (
	ProgressKindBegin  ProgressKind = "begin"
	ProgressKindReport ProgressKind = "report"
	ProgressKindEnd    ProgressKind = "end"
)
