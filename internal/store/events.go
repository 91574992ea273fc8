package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"fairpos/internal/core"
)

// EventRegistry tracks the named time windows sales are bucketed into.
// At most one event is active at a time; that invariant lives here,
// not in the callers. The event list and the active-event id persist
// under separate repository keys.
type EventRegistry struct {
	mu       sync.Mutex
	repo     Repository
	events   []core.Event
	activeID string
	now      func() time.Time
}

func NewEventRegistry(repo Repository) *EventRegistry {
	return &EventRegistry{repo: repo, now: time.Now}
}

func (r *EventRegistry) Open(ctx context.Context) error {
	raw, ok, err := r.repo.Load(ctx, KeyEvents)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	var events []core.Event
	if ok {
		if err := json.Unmarshal(raw, &events); err != nil {
			return fmt.Errorf("decode events: %w", err)
		}
	}
	var activeID string
	raw, ok, err = r.repo.Load(ctx, KeyActiveEvent)
	if err != nil {
		return fmt.Errorf("load active event: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &activeID); err != nil {
			return fmt.Errorf("decode active event: %w", err)
		}
	}
	r.mu.Lock()
	r.events = events
	r.activeID = activeID
	r.mu.Unlock()
	return nil
}

// persist holds the lock across both Saves so the event list and the
// active id reach the repository in mutation order, same as the store
// blob.
func (r *EventRegistry) persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := json.Marshal(emptyIfNil(r.events))
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := r.repo.Save(ctx, KeyEvents, events); err != nil {
		return fmt.Errorf("persist events: %w", err)
	}
	active, err := json.Marshal(r.activeID)
	if err != nil {
		return fmt.Errorf("encode active event: %w", err)
	}
	if err := r.repo.Save(ctx, KeyActiveEvent, active); err != nil {
		return fmt.Errorf("persist active event: %w", err)
	}
	return nil
}

type StartEventInput struct {
	Name     string
	Date     string
	Location string
}

// StartEvent opens a new event window. Starting while another event is
// active is rejected.
func (r *EventRegistry) StartEvent(ctx context.Context, in StartEventInput) (core.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Event{}, core.ErrEmptyName
	}
	evt := core.Event{
		ID:        newID("evt"),
		Name:      name,
		Date:      strings.TrimSpace(in.Date),
		Location:  strings.TrimSpace(in.Location),
		StartedAt: r.now(),
	}
	r.mu.Lock()
	if r.activeID != "" {
		r.mu.Unlock()
		return core.Event{}, core.ErrEventActive
	}
	r.events = append(r.events, evt)
	r.activeID = evt.ID
	r.mu.Unlock()
	return evt, r.persist(ctx)
}

// EndEvent stamps the active event's EndedAt and clears the active id.
func (r *EventRegistry) EndEvent(ctx context.Context) (core.Event, error) {
	now := r.now()
	r.mu.Lock()
	if r.activeID == "" {
		r.mu.Unlock()
		return core.Event{}, core.ErrNoActiveEvent
	}
	var ended core.Event
	for i := range r.events {
		if r.events[i].ID == r.activeID {
			t := now
			r.events[i].EndedAt = &t
			ended = r.events[i]
			break
		}
	}
	r.activeID = ""
	r.mu.Unlock()
	if ended.ID == "" {
		return core.Event{}, core.ErrNotFound
	}
	return ended, r.persist(ctx)
}

// RestoreEvent re-activates a past event (its EndedAt is cleared so
// new sales land in its window again). Only allowed while no other
// event is active.
func (r *EventRegistry) RestoreEvent(ctx context.Context, id string) (core.Event, error) {
	r.mu.Lock()
	if r.activeID != "" {
		r.mu.Unlock()
		return core.Event{}, core.ErrEventActive
	}
	var restored core.Event
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].EndedAt = nil
			restored = r.events[i]
			break
		}
	}
	if restored.ID == "" {
		r.mu.Unlock()
		return core.Event{}, core.ErrNotFound
	}
	r.activeID = id
	r.mu.Unlock()
	return restored, r.persist(ctx)
}

// ActiveEvent returns the currently running event, if any.
func (r *EventRegistry) ActiveEvent() (core.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID == "" {
		return core.Event{}, false
	}
	for _, e := range r.events {
		if e.ID == r.activeID {
			return e, true
		}
	}
	return core.Event{}, false
}

func (r *EventRegistry) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

func (r *EventRegistry) Get(id string) (core.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			return e, true
		}
	}
	return core.Event{}, false
}
