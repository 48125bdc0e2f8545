package java

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"java-lsp-rpc/catalog"
	"java-lsp-rpc/message"
)

func TestCatalogHoldsEveryMethod(t *testing.T) {
	c := Catalog()
	all := c.All()
	assert.Len(t, all, len(Entries()))

	var serverSide, notifications int
	for _, d := range all {
		if d.Direction == catalog.ServerToClient {
			serverSide++
		}
		if d.Kind == catalog.KindNotification {
			notifications++
		}
	}
	assert.Equal(t, 6, serverSide)
	assert.Equal(t, 8, notifications)

	d, ok := c.Lookup("java/buildWorkspace")
	require.True(t, ok)
	assert.Equal(t, catalog.KindRequest, d.Kind)

	d, ok = c.Lookup("workspace/executeClientCommand")
	require.True(t, ok)
	assert.Equal(t, catalog.ServerToClient, d.Direction)
	assert.Equal(t, catalog.KindRequest, d.Kind)
}

func TestCatalogDecodesPayloads(t *testing.T) {
	c := Catalog()

	v, err := c.DecodeParams("language/status", json.RawMessage(`{"message":"Indexing","type":"info"}`))
	require.NoError(t, err)
	assert.Equal(t, &StatusReport{Message: "Indexing", Type: "info"}, v)

	v, err = c.DecodeResult("java/buildWorkspace", json.RawMessage(`1`))
	require.NoError(t, err)
	assert.Equal(t, CompileSucceed, *v.(*CompileWorkspaceStatus))
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "info", MessageInfo.String())
	assert.Equal(t, "automatic", FeatureAutomatic.String())
	assert.Equal(t, "sourceInvalidated", EventSourceInvalidated.String())
	assert.Equal(t, "withError", CompileWithError.String())
	assert.Equal(t, "both", AccessorBoth.String())
	assert.Equal(t, "EventType(7)", EventType(7).String())
}

func TestEventAccessors(t *testing.T) {
	var ev EventNotification
	require.NoError(t, json.Unmarshal([]byte(`{"eventType":500,"data":{"affectedRootPaths":{"/lib/a.jar":true}}}`), &ev))

	src, err := ev.SourceInvalidated()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"/lib/a.jar": true}, src.AffectedRootPaths)

	_, err = ev.GradleCompatibility()
	assert.True(t, errors.Is(err, ErrEventType))

	gradle := EventNotification{
		EventType: EventUpgradeGradleWrapper,
		Data:      json.RawMessage(`{"projectUri":"file:///p","message":"upgrade","recommendedGradleVersion":"8.5"}`),
	}
	info, err := gradle.UpgradeGradleWrapper()
	require.NoError(t, err)
	assert.Equal(t, "8.5", info.RecommendedGradleVersion)
	assert.Equal(t, uri.URI("file:///p"), info.ProjectURI)

	bad := EventNotification{EventType: EventIncompatibleGradleJdkIssue, Data: json.RawMessage(`[1]`)}
	_, err = bad.GradleCompatibility()
	assert.True(t, errors.Is(err, message.ErrDecode))

	imported := EventNotification{EventType: EventProjectsImported, Data: json.RawMessage(`["file:///a","file:///b"]`)}
	uris, err := imported.ProjectURIs()
	require.NoError(t, err)
	assert.Len(t, uris, 2)

	updated := EventNotification{EventType: EventClasspathUpdated, Data: json.RawMessage(`"file:///a"`)}
	uris, err = updated.ProjectURIs()
	require.NoError(t, err)
	assert.Equal(t, []uri.URI{"file:///a"}, uris)
}

func TestErrorMessageIsApplicationLevel(t *testing.T) {
	var res MoveDestinationsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"errorMessage":"cannot move","destinations":[]}`), &res))

	err := res.Err()
	require.Error(t, err)
	var appErr *ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "cannot move", appErr.Message)
	var rerr *message.ResponseError
	assert.False(t, errors.As(err, &rerr))

	edit := RefactorWorkspaceEdit{}
	assert.NoError(t, edit.Err())
}

func TestMoveDestinations(t *testing.T) {
	res := MoveDestinationsResponse{Destinations: []json.RawMessage{
		json.RawMessage(`{"displayName":"com.example","uri":"file:///src/com/example","isDefaultPackage":false}`),
	}}
	nodes, err := res.Packages()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "com.example", nodes[0].DisplayName)

	var p MoveParams
	require.NoError(t, p.SetDestination(nodes[0]))
	node, err := p.PackageDestination()
	require.NoError(t, err)
	assert.Equal(t, nodes[0], *node)
}

func TestParamsKeepLSPFields(t *testing.T) {
	raw := `{"textDocument":{"uri":"file:///a/A.java"},"range":{"start":{"line":1,"character":0},"end":{"line":1,"character":4}},"context":{"diagnostics":[]},"kind":1}`
	var p AccessorCodeActionParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, AccessorSetter, p.Kind)
	assert.EqualValues(t, "file:///a/A.java", p.TextDocument.URI)
	assert.EqualValues(t, 1, p.Range.Start.Line)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	narrowed := NewAccessorCodeActionParams(protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a/B.java"},
	}, AccessorBoth)
	out, err = json.Marshal(narrowed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"textDocument":{"uri":"file:///a/B.java"},"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}},"context":{"diagnostics":null},"kind":2}`, string(out))

	out, err = json.Marshal(SearchSymbolParams{Query: "Foo", ProjectName: "app", MaxResults: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"Foo","projectName":"app","maxResults":5}`, string(out))

	link := `{"uri":"file:///a/A.java","range":{"start":{"line":2,"character":1},"end":{"line":2,"character":5}},"displayName":"A","kind":"class"}`
	var loc LinkLocation
	require.NoError(t, json.Unmarshal([]byte(link), &loc))
	assert.EqualValues(t, "file:///a/A.java", loc.Location().URI)
	assert.EqualValues(t, 5, loc.Location().Range.End.Character)
	out, err = json.Marshal(loc)
	require.NoError(t, err)
	assert.JSONEq(t, link, string(out))
}

func TestProgressKind(t *testing.T) {
	p := ProgressReport{Token: protocol.NewProgressToken("t"), Value: json.RawMessage(`{"kind":"begin","title":"Building"}`)}
	assert.Equal(t, ProgressKindBegin, p.Kind())
	assert.Equal(t, ProgressKind(""), ProgressReport{}.Kind())
}

func TestProgressTokenForms(t *testing.T) {
	var p ProgressReport
	require.NoError(t, json.Unmarshal([]byte(`{"token":7,"value":{"kind":"report","percentage":40}}`), &p))
	require.NotNil(t, p.Token)
	assert.Equal(t, "7", p.Token.String())
	assert.Equal(t, ProgressKindReport, p.Kind())

	require.NoError(t, json.Unmarshal([]byte(`{"token":"build-1","value":{"kind":"end"},"complete":true}`), &p))
	assert.Equal(t, "build-1", p.Token.String())
	assert.True(t, p.Complete)
}
