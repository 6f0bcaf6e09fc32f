// integration.go defines the client's extension contract plus the default
// integrations installed on every client.

package tern

// EventHint carries out-of-band context about the origin of an event,
// available to integrations but never serialized into the payload.
type EventHint struct {
	// OriginalException is the raw value passed to CaptureException, before
	// normalization. Nil for message events.
	OriginalException any
}

// Integration extends the client's event pipeline. SetupOnce runs at client
// construction; ProcessEvent runs on every event after scope application and
// redaction, in registration order, and may rewrite the event or drop it by
// returning nil.
type Integration interface {
	Name() string
	SetupOnce(client *Client)
	ProcessEvent(event *Event, hint *EventHint, client *Client) *Event
}

// defaultLinkedErrorsLimit bounds exception chains at five entries,
// including the primary exception.
const defaultLinkedErrorsLimit = 5

// LinkedErrors unwraps the cause chain of a captured error and records each
// cause as an additional exception entry, root cause first, so grouped
// events show the full failure lineage. Installed by default.
type LinkedErrors struct {
	// Limit caps the total number of exception entries.
	Limit int
}

// NewLinkedErrors returns the integration with the given chain limit; zero
// or negative selects the default of five.
func NewLinkedErrors(limit int) *LinkedErrors {
	if limit <= 0 {
		limit = defaultLinkedErrorsLimit
	}
	return &LinkedErrors{Limit: limit}
}

func (li *LinkedErrors) Name() string { return "LinkedErrors" }

func (li *LinkedErrors) SetupOnce(client *Client) {}

func (li *LinkedErrors) ProcessEvent(event *Event, hint *EventHint, client *Client) *Event {
	if event == nil || event.Exception == nil || hint == nil {
		return event
	}
	err, ok := hint.OriginalException.(error)
	if !ok || err == nil {
		return event
	}
	causes := walkErrorChain(err, li.Limit, !client.options.DisableStacktrace)
	if len(causes) > 0 {
		event.Exception.Values = append(causes, event.Exception.Values...)
	}
	return event
}
