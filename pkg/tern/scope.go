// scope.go holds the mutable per-invocation contextual state that is merged
// into outgoing events.

package tern

import (
	"sync"
	"time"
)

// EventProcessor transforms an event before delivery. Returning nil drops the
// event.
type EventProcessor func(event *Event) *Event

// Scope is a mutable container for contextual state layered per logical
// operation. A Scope is owned by exactly one client's invocation; cross-scope
// mutation is not permitted. All methods are safe for concurrent use.
type Scope struct {
	mu          sync.RWMutex
	tags        map[string]string
	extra       map[string]any
	contexts    map[string]map[string]any
	user        *User
	breadcrumbs []Breadcrumb
	fingerprint []string
	processors  []EventProcessor
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{
		tags:     make(map[string]string),
		extra:    make(map[string]any),
		contexts: make(map[string]map[string]any),
	}
}

// SetTag merges a single tag into the scope, last write wins.
func (s *Scope) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[key] = value
}

// SetTags merges the given tags into the scope, last write wins per key.
func (s *Scope) SetTags(tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range tags {
		s.tags[k] = v
	}
}

// SetExtra merges a single extra field into the scope.
func (s *Scope) SetExtra(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra[key] = value
}

// SetExtras merges the given extra fields into the scope.
func (s *Scope) SetExtras(extra map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range extra {
		s.extra[k] = v
	}
}

// SetUser replaces the user wholesale. Passing nil clears the user. The user
// record is treated as immutable once set, so clones may share it.
func (s *Scope) SetUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// SetContext sets a named context block on the scope.
func (s *Scope) SetContext(key string, value map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[key] = value
}

// SetFingerprint replaces the grouping fingerprint wholesale.
func (s *Scope) SetFingerprint(fingerprint []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprint = append([]string(nil), fingerprint...)
}

// AddEventProcessor appends a processor applied to every event built against
// this scope, in registration order.
func (s *Scope) AddEventProcessor(processor EventProcessor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processors = append(s.processors, processor)
}

// AddBreadcrumb appends a breadcrumb, stamping the current time if absent.
// When the buffer exceeds max, the oldest entries are dropped so only the
// most recent max remain. A non-positive max disables capture.
func (s *Scope) AddBreadcrumb(breadcrumb Breadcrumb, max int) {
	if max <= 0 {
		return
	}

	if breadcrumb.Timestamp == 0 {
		breadcrumb.Timestamp = unixSeconds(time.Now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = append(s.breadcrumbs, breadcrumb)
	if len(s.breadcrumbs) > max {
		s.breadcrumbs = s.breadcrumbs[len(s.breadcrumbs)-max:]
	}
}

// Clone returns an independent copy. Maps, the breadcrumb buffer, and the
// processor list are copied; the user record is shared by reference since it
// is immutable after set. Mutations to the clone never propagate back.
func (s *Scope) Clone() *Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := NewScope()
	for k, v := range s.tags {
		clone.tags[k] = v
	}
	for k, v := range s.extra {
		clone.extra[k] = v
	}
	for k, v := range s.contexts {
		clone.contexts[k] = v
	}
	clone.user = s.user
	clone.breadcrumbs = append([]Breadcrumb(nil), s.breadcrumbs...)
	clone.fingerprint = append([]string(nil), s.fingerprint...)
	clone.processors = append([]EventProcessor(nil), s.processors...)
	return clone
}

// ApplyToEvent merges the scope's state into the event. Data already present
// on the event wins on conflict. Fingerprint and breadcrumbs concatenate with
// event-level entries first, then scope entries.
func (s *Scope) ApplyToEvent(event *Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.extra) > 0 {
		merged := make(map[string]any, len(s.extra)+len(event.Extra))
		for k, v := range s.extra {
			merged[k] = v
		}
		for k, v := range event.Extra {
			merged[k] = v
		}
		event.Extra = merged
	}

	if len(s.tags) > 0 {
		merged := make(map[string]string, len(s.tags)+len(event.Tags))
		for k, v := range s.tags {
			merged[k] = v
		}
		for k, v := range event.Tags {
			merged[k] = v
		}
		event.Tags = merged
	}

	if len(s.contexts) > 0 {
		merged := make(map[string]map[string]any, len(s.contexts)+len(event.Contexts))
		for k, v := range s.contexts {
			merged[k] = v
		}
		for k, v := range event.Contexts {
			merged[k] = v
		}
		event.Contexts = merged
	}

	if !s.user.isEmpty() {
		event.User = mergeUser(s.user, event.User)
	}

	if len(s.fingerprint) > 0 || len(event.Fingerprint) > 0 {
		event.Fingerprint = append(event.Fingerprint, s.fingerprint...)
	}

	if len(s.breadcrumbs) > 0 || len(event.Breadcrumbs) > 0 {
		event.Breadcrumbs = append(event.Breadcrumbs, s.breadcrumbs...)
	}
}

// eventProcessors returns a snapshot of the registered processors.
func (s *Scope) eventProcessors() []EventProcessor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EventProcessor(nil), s.processors...)
}

// mergeUser overlays event-level user fields on top of the scope user.
// Event-specific fields win on conflict.
func mergeUser(scopeUser, eventUser *User) *User {
	if eventUser == nil {
		copied := *scopeUser
		return &copied
	}
	merged := *eventUser
	if merged.ID == "" {
		merged.ID = scopeUser.ID
	}
	if merged.Email == "" {
		merged.Email = scopeUser.Email
	}
	if merged.IPAddress == "" {
		merged.IPAddress = scopeUser.IPAddress
	}
	if merged.Username == "" {
		merged.Username = scopeUser.Username
	}
	return &merged
}
