package java

import (
	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"java-lsp-rpc/message"
)

// ErrEventType is returned by the EventNotification accessors when the
// event carries a different payload.
var ErrEventType = errors.Base("unexpected event type")

// StatusReport is the payload of language/status.
type StatusReport struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ProgressReport is the payload of $/progress as the backend sends it.
type ProgressReport struct {
	Token    *protocol.ProgressToken `json:"token"`
	Value    json.RawMessage         `json:"value"`
	Complete bool                    `json:"complete"`
}

// Kind reads value.kind, or returns "" when the value has none.
func (p ProgressReport) Kind() ProgressKind {
	var v struct {
		Kind ProgressKind `json:"kind"`
	}
	if len(p.Value) == 0 || json.Unmarshal(p.Value, &v) != nil {
		return ""
	}
	return v.Kind
}

type ActionableMessage struct {
	Severity MessageType        `json:"severity"`
	Message  string             `json:"message"`
	Data     json.RawMessage    `json:"data,omitempty"`
	Commands []protocol.Command `json:"commands,omitempty"`
}

// EventNotification is the payload of language/eventNotification. Data
// depends on EventType; use the typed accessors to read it.
type EventNotification struct {
	EventType EventType       `json:"eventType"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SourceInvalidatedEvent lists package fragment roots that got new source
// attachments, keyed by root path. The value is true when the source was
// downloaded automatically.
type SourceInvalidatedEvent struct {
	AffectedRootPaths map[string]bool `json:"affectedRootPaths"`
}

type GradleCompatibilityInfo struct {
	ProjectURI               uri.URI `json:"projectUri"`
	Message                  string  `json:"message"`
	HighestJavaVersion       string  `json:"highestJavaVersion"`
	RecommendedGradleVersion string  `json:"recommendedGradleVersion"`
}

type UpgradeGradleWrapperInfo struct {
	ProjectURI               uri.URI `json:"projectUri"`
	Message                  string  `json:"message"`
	RecommendedGradleVersion string  `json:"recommendedGradleVersion"`
}

func (e EventNotification) SourceInvalidated() (*SourceInvalidatedEvent, error) {
	var out SourceInvalidatedEvent
	if err := e.decode(EventSourceInvalidated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e EventNotification) GradleCompatibility() (*GradleCompatibilityInfo, error) {
	var out GradleCompatibilityInfo
	if err := e.decode(EventIncompatibleGradleJdkIssue, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e EventNotification) UpgradeGradleWrapper() (*UpgradeGradleWrapperInfo, error) {
	var out UpgradeGradleWrapperInfo
	if err := e.decode(EventUpgradeGradleWrapper, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectURIs reads the project list of classpath and project events. The
// backend sends either a single URI or an array of them.
func (e EventNotification) ProjectURIs() ([]uri.URI, error) {
	switch e.EventType {
	case EventClasspathUpdated, EventProjectsImported, EventProjectsDeleted:
	default:
		return nil, errors.WithDetails(ErrEventType, "eventType", e.EventType.String())
	}
	if len(e.Data) == 0 {
		return nil, nil
	}
	var one uri.URI
	if err := json.Unmarshal(e.Data, &one); err == nil {
		return []uri.URI{one}, nil
	}
	var many []uri.URI
	if err := json.Unmarshal(e.Data, &many); err != nil {
		return nil, errors.WrapWith(err, message.ErrDecode)
	}
	return many, nil
}

func (e EventNotification) decode(want EventType, out any) error {
	if e.EventType != want {
		return errors.WithDetails(ErrEventType, "eventType", e.EventType.String(), "want", want.String())
	}
	if len(e.Data) == 0 {
		return errors.WithDetails(message.ErrDecode, "eventType", want.String(), "reason", "no data")
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return errors.WrapWith(err, message.ErrDecode)
	}
	return nil
}
