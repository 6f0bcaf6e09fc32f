// event.go defines the wire-level payload sent to the store endpoint.

package tern

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Level indicates the severity of an event or breadcrumb.
type Level string

const (
	LevelCritical Level = "critical"
	LevelFatal    Level = "fatal"
	LevelError    Level = "error"
	LevelWarning  Level = "warning"
	LevelInfo     Level = "info"
	LevelLog      Level = "log"
	LevelDebug    Level = "debug"
)

// User describes the user associated with an event.
type User struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Username  string `json:"username,omitempty"`
}

func (u *User) isEmpty() bool {
	return u == nil || (u.ID == "" && u.Email == "" && u.IPAddress == "" && u.Username == "")
}

// Breadcrumb is a timestamped trail entry recording activity prior to an
// event. Breadcrumbs are attached to future events to provide context.
type Breadcrumb struct {
	Message   string         `json:"message,omitempty"`
	Category  string         `json:"category,omitempty"`
	Level     Level          `json:"level,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp float64        `json:"timestamp,omitempty"`
}

// SDKInfo identifies the reporting client on the wire.
type SDKInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Frame is a single stack frame. Frames are ordered oldest call site first,
// innermost frame last, matching the store's rendering convention.
type Frame struct {
	Function string `json:"function,omitempty"`
	Module   string `json:"module,omitempty"`
	Filename string `json:"filename,omitempty"`
	AbsPath  string `json:"abs_path,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
	Colno    int    `json:"colno,omitempty"`
	InApp    bool   `json:"in_app"`
}

// Stacktrace is an ordered sequence of frames.
type Stacktrace struct {
	Frames []Frame `json:"frames"`
}

// Mechanism records how an exception was captured.
type Mechanism struct {
	Type      string `json:"type,omitempty"`
	Handled   bool   `json:"handled"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// Exception is a single normalized exception record.
type Exception struct {
	Type       string      `json:"type,omitempty"`
	Value      string      `json:"value,omitempty"`
	Stacktrace *Stacktrace `json:"stacktrace,omitempty"`
	Mechanism  *Mechanism  `json:"mechanism,omitempty"`
}

// ExceptionChain wraps the ordered exception values of an event. The primary
// exception is last; linked causes precede it, root cause first.
type ExceptionChain struct {
	Values []Exception `json:"values"`
}

// Request is a redacted snapshot of the inbound request. Data is late-bound
// via Client.SetRequestBody because request bodies may only be consumable
// once by the host.
type Request struct {
	Method      string            `json:"method,omitempty"`
	URL         string            `json:"url,omitempty"`
	QueryString string            `json:"query_string,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Cookies     map[string]string `json:"cookies,omitempty"`
	Data        any               `json:"data,omitempty"`
}

func (r *Request) clone() *Request {
	if r == nil {
		return nil
	}
	out := &Request{
		Method:      r.Method,
		URL:         r.URL,
		QueryString: r.QueryString,
		Data:        r.Data,
	}
	out.Headers = copyStringMap(r.Headers)
	out.Cookies = copyStringMap(r.Cookies)
	return out
}

// Event is an immutable snapshot built at capture time.
type Event struct {
	EventID     string                    `json:"event_id"`
	Timestamp   float64                   `json:"timestamp"`
	Level       Level                     `json:"level,omitempty"`
	Logger      string                    `json:"logger,omitempty"`
	Platform    string                    `json:"platform,omitempty"`
	Release     string                    `json:"release,omitempty"`
	Environment string                    `json:"environment,omitempty"`
	Message     string                    `json:"message,omitempty"`
	Exception   *ExceptionChain           `json:"exception,omitempty"`
	Request     *Request                  `json:"request,omitempty"`
	User        *User                     `json:"user,omitempty"`
	Tags        map[string]string         `json:"tags,omitempty"`
	Extra       map[string]any            `json:"extra,omitempty"`
	Contexts    map[string]map[string]any `json:"contexts,omitempty"`
	Breadcrumbs []Breadcrumb              `json:"breadcrumbs,omitempty"`
	Fingerprint []string                  `json:"fingerprint,omitempty"`
	SDK         SDKInfo                   `json:"sdk"`
}

// newEventID returns a random 128-bit identifier rendered as a 32-hex-digit
// string. Dashes are not allowed by the wire contract.
func newEventID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// unixSeconds renders a time as seconds since the UNIX epoch with fractional
// precision, the wire contract's timestamp format.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
