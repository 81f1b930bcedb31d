package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/INLOpen/docseek/core"
)

// EventType defines the type of a hook event.
type EventType string

// --- Event Type Constants ---
const (
	// Scan Lifecycle Events
	EventPreScan  EventType = "PreScan"
	EventPostScan EventType = "PostScan"

	// Seek Events
	EventPreSeek  EventType = "PreSeek"
	EventPostSeek EventType = "PostSeek"

	// Document Events
	EventPostDocument EventType = "PostDocument"
	EventOnFieldLimit EventType = "OnFieldLimit"

	// Cache Events
	EventOnCacheHit      EventType = "OnCacheHit"
	EventOnCacheMiss     EventType = "OnCacheMiss"
	EventOnCacheEviction EventType = "OnCacheEviction"
)

// --- HookManager Interface and Implementation ---

// HookManager defines the interface for managing and triggering hooks.
type HookManager interface {
	// Register adds a listener for a specific event type.
	Register(eventType EventType, listener HookListener)
	// HasListeners reports whether any listener is registered for eventType,
	// so callers can skip building payloads nobody receives.
	HasListeners(eventType EventType) bool
	// Trigger fires all registered listeners for a given event.
	// It handles synchronous vs. asynchronous execution based on the event type and listener preference.
	Trigger(ctx context.Context, event HookEvent) error
	// Stop waits for all asynchronous listeners to complete. Useful for graceful shutdown.
	Stop()
}

// HookEvent is the interface that all event objects must implement.
type HookEvent interface {
	// Type returns the type of the event.
	Type() EventType
	// Payload returns the data associated with the event.
	Payload() interface{}
}

// BaseEvent provides a base implementation for HookEvent.
type BaseEvent struct {
	eventType EventType
	payload   interface{}
}

func (e *BaseEvent) Type() EventType      { return e.eventType }
func (e *BaseEvent) Payload() interface{} { return e.payload }

// PreScanPayload contains the data for a PreScan event.
// Range is a pointer so listeners can narrow the scan before it starts.
type PreScanPayload struct {
	Range *core.Range
}

// NewPreScanEvent creates a new event for before a scan starts.
func NewPreScanEvent(payload PreScanPayload) HookEvent {
	return &BaseEvent{eventType: EventPreScan, payload: payload}
}

// PostScanPayload contains the data for a PostScan event.
type PostScanPayload struct {
	Range     core.Range
	Documents int64
	Error     error // The final error state of the scan.
}

// NewPostScanEvent creates a new event for after a scan completes.
func NewPostScanEvent(payload PostScanPayload) HookEvent {
	return &BaseEvent{eventType: EventPostScan, payload: payload}
}

// PreSeekPayload contains the data for a PreSeek event. Returning an error
// from a listener vetoes the seek; the scan keeps stepping instead.
type PreSeekPayload struct {
	Current core.Key
	Target  core.Range
}

// NewPreSeekEvent creates a new event for before the scan seeks.
func NewPreSeekEvent(payload PreSeekPayload) HookEvent {
	return &BaseEvent{eventType: EventPreSeek, payload: payload}
}

// PostSeekPayload contains the data for a PostSeek event.
type PostSeekPayload struct {
	From   core.Key
	Target core.Range
}

// NewPostSeekEvent creates a new event for after the scan seeked.
func NewPostSeekEvent(payload PostSeekPayload) HookEvent {
	return &BaseEvent{eventType: EventPostSeek, payload: payload}
}

// PostDocumentPayload contains the data for a PostDocument event.
type PostDocumentPayload struct {
	DocumentKey  core.Key
	KeysVisited  int
	KeysReturned int
}

// NewPostDocumentEvent creates a new event for after a document is emitted.
func NewPostDocumentEvent(payload PostDocumentPayload) HookEvent {
	return &BaseEvent{eventType: EventPostDocument, payload: payload}
}

// OnFieldLimitPayload contains the data for an OnFieldLimit event.
type OnFieldLimitPayload struct {
	Key    core.Key // The key dropped by the limit.
	Marker core.Key // The marker key returned in its place.
}

// NewOnFieldLimitEvent creates a new event for a key replaced by a limit marker.
func NewOnFieldLimitEvent(payload OnFieldLimitPayload) HookEvent {
	return &BaseEvent{eventType: EventOnFieldLimit, payload: payload}
}

// CachePayload contains the data for cache events.
type CachePayload struct {
	Cache string
	Key   string
}

// NewCacheEvent creates a cache hit, miss or eviction event.
func NewCacheEvent(eventType EventType, payload CachePayload) HookEvent {
	return &BaseEvent{eventType: eventType, payload: payload}
}

// HookListener is the interface for any component that wants to listen to hook events.
type HookListener interface {
	// OnEvent is called by the HookManager when a registered event is triggered.
	// Returning an error from a "Pre" hook (e.g., PreSeek) cancels the operation.
	// Errors from other hooks are logged without affecting the scan.
	OnEvent(ctx context.Context, event HookEvent) error

	// Priority returns the listener's priority. Lower numbers are executed first.
	Priority() int

	// IsAsync indicates if the listener should be called asynchronously for non-Pre events.
	IsAsync() bool
}

// ListenerFunc adapts a function to a synchronous HookListener.
type ListenerFunc struct {
	Fn    func(ctx context.Context, event HookEvent) error
	Order int
}

func (l ListenerFunc) OnEvent(ctx context.Context, event HookEvent) error { return l.Fn(ctx, event) }
func (l ListenerFunc) Priority() int                                      { return l.Order }
func (l ListenerFunc) IsAsync() bool                                      { return false }

// listenerWithPriority wraps a listener with its priority.
type listenerWithPriority struct {
	listener HookListener
	priority int
}

// DefaultHookManager is a concrete implementation of HookManager.
type DefaultHookManager struct {
	// The map stores slices of listeners, kept sorted by priority.
	listeners map[EventType][]*listenerWithPriority
	mu        sync.RWMutex
	wg        sync.WaitGroup // For tracking async listeners
	logger    *slog.Logger
}

// NewHookManager creates a new DefaultHookManager.
func NewHookManager(logger *slog.Logger) HookManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DefaultHookManager{
		listeners: make(map[EventType][]*listenerWithPriority),
		logger:    logger.With("component", "HookManager"),
	}
}

// Register adds a listener for a specific event type, maintaining priority order.
// Listeners with equal priority run in registration order. The stored slice is
// replaced, never modified, since Trigger iterates it without the lock.
func (m *DefaultHookManager) Register(eventType EventType, listener HookListener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := &listenerWithPriority{
		listener: listener,
		priority: listener.Priority(),
	}

	l := m.listeners[eventType]
	// sort.Search finds the first index i where l[i].priority > item.priority.
	idx := sort.Search(len(l), func(i int) bool {
		return l[i].priority > item.priority
	})
	next := make([]*listenerWithPriority, 0, len(l)+1)
	next = append(next, l[:idx]...)
	next = append(next, item)
	next = append(next, l[idx:]...)

	m.listeners[eventType] = next
}

func (m *DefaultHookManager) HasListeners(eventType EventType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners[eventType]) > 0
}

// Trigger fires all registered listeners for a given event in priority order.
func (m *DefaultHookManager) Trigger(ctx context.Context, event HookEvent) error {
	m.mu.RLock()
	listeners, ok := m.listeners[event.Type()]
	m.mu.RUnlock()

	if !ok || len(listeners) == 0 {
		return nil
	}

	isPreHook := strings.HasPrefix(string(event.Type()), "Pre")

	for _, item := range listeners {
		isListenerAsync := item.listener.IsAsync()

		// Pre-hooks MUST be synchronous to allow for cancellation.
		if isPreHook || !isListenerAsync {
			if isPreHook && isListenerAsync {
				m.logger.Warn("Listener for Pre-hook requested async execution, but Pre-hooks are always synchronous.", "event", event.Type(), "priority", item.priority)
			}

			if err := item.listener.OnEvent(ctx, event); err != nil {
				if isPreHook {
					return fmt.Errorf("pre-hook for event %s (priority %d) failed: %w", event.Type(), item.priority, err)
				}
				m.logger.Error("Error from synchronous hook listener", "event", event.Type(), "priority", item.priority, "error", err)
			}
			continue
		}

		m.wg.Add(1)
		go func(currentItem *listenerWithPriority) {
			defer m.wg.Done()
			if err := currentItem.listener.OnEvent(ctx, event); err != nil {
				m.logger.Error("Error from asynchronous hook listener", "event", event.Type(), "priority", currentItem.priority, "error", err)
			}
		}(item)
	}
	return nil
}

// Stop waits for all asynchronous listeners to complete.
func (m *DefaultHookManager) Stop() {
	m.wg.Wait()
}
