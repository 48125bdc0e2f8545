package transport

// DiagnosticKind names the class of a recovered anomaly.
type DiagnosticKind string

const (
	DiagnosticDecode          DiagnosticKind = "decode"
	DiagnosticUnknownResponse DiagnosticKind = "unknown-response"
	DiagnosticHandler         DiagnosticKind = "handler"
	DiagnosticReply           DiagnosticKind = "reply"
	DiagnosticCancelNotify    DiagnosticKind = "cancel-notify"
)

// Diagnostic reports something the channel dropped or isolated without
// shutting down.
type Diagnostic struct {
	Kind   DiagnosticKind
	Method string
	ID     string
	Err    error
	Frame  []byte
}

func (c *Channel) diagnose(d Diagnostic) {
	event := c.logger.Warn().Str("kind", string(d.Kind))
	if d.Method != "" {
		event = event.Str("method", d.Method)
	}
	if d.ID != "" {
		event = event.Str("id", d.ID)
	}
	if d.Frame != nil {
		event = event.Bytes("frame", d.Frame)
	}
	event.Err(d.Err).Msg("channel anomaly")

	if c.onDiagnostic != nil {
		c.onDiagnostic(d)
	}
}
