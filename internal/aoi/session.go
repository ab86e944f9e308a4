package aoi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jengzang/urban-twin-go/internal/spatial"
)

// State of the AOI interaction
type State string

const (
	StateIdle             State = "idle"
	StateDrawingRectangle State = "drawing_rectangle"
	StateDrawingPolygon   State = "drawing_polygon"
	StatePlaced           State = "placed"
	StateActive           State = "active"
	StateEditing          State = "editing"
)

// EventType is an input to the interaction state machine
type EventType string

const (
	EventStartRectangle EventType = "start_rectangle"
	EventStartPolygon   EventType = "start_polygon"
	EventPointerDown    EventType = "pointer_down"
	EventPointerMove    EventType = "pointer_move"
	EventPointerUp      EventType = "pointer_up"
	EventAddVertex      EventType = "add_vertex"
	EventFinishPolygon  EventType = "finish_polygon"
	EventCancel         EventType = "cancel"
	EventPlaceBoundary  EventType = "place_boundary"
	EventActivate       EventType = "activate"
	EventDeactivate     EventType = "deactivate"
	EventBeginEdit      EventType = "begin_edit"
	EventDragCorner     EventType = "drag_corner"
	EventSaveEdit       EventType = "save_edit"
	EventCancelEdit     EventType = "cancel_edit"
	EventDelete         EventType = "delete"
)

// ErrInvalidTransition is returned for an event the current state does not
// accept. The session is left unchanged.
var ErrInvalidTransition = errors.New("invalid aoi transition")

// Event carries the payload of a state machine input. Pick is in radians;
// nil means the pointer did not resolve to a ground position.
type Event struct {
	Type   EventType       `json:"type"`
	Pick   *spatial.LonLat `json:"pick,omitempty"`
	Corner Corner          `json:"corner,omitempty"`
	Area   *AreaOfInterest `json:"-"`
}

// Snapshot is an immutable view of a session
type Snapshot struct {
	Owner      string          `json:"owner"`
	State      State           `json:"state"`
	Area       *AreaOfInterest `json:"area,omitempty"`
	Preview    *Rectangle      `json:"preview,omitempty"`
	Vertices   int             `json:"vertices,omitempty"`
	Generation uint64          `json:"generation"`
	Filters    FilterSelection `json:"filters"`
	Editable   bool            `json:"editable"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Session owns one user's AOI lifecycle: the committed shape, its filter
// selection, and a generation counter that changes every time the shape is
// replaced, deactivated or deleted. Each generation has its own context,
// cancelled when the generation ends.
type Session struct {
	mu sync.Mutex

	owner      string
	state      State
	area       AreaOfInterest
	filters    FilterSelection
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	updatedAt  time.Time

	// rectangle drag
	dragging bool
	start    *spatial.LonLat
	current  *spatial.LonLat

	// polygon draw
	picks []*spatial.LonLat

	// corner edit
	editFrom State
	editRect Rectangle
}

// NewSession creates an idle session
func NewSession(owner string) *Session {
	s := &Session{
		owner:   owner,
		state:   StateIdle,
		filters: FilterSelection{},
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.updatedAt = time.Now()
	return s
}

// Handle applies one event. Input errors (unresolved picks, too few
// vertices) abort the drawing and return to Idle; no partial AOI is kept.
func (s *Session) Handle(ev Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(ev)
	s.updatedAt = time.Now()
	return s.snapshotLocked(), err
}

// Snapshot returns the current view of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetFilters replaces the filter selection. It requires a committed AOI.
func (s *Session) SetFilters(sel FilterSelection) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.area.IsZero() || s.state == StateEditing {
		return s.snapshotLocked(), fmt.Errorf("%w: no area to filter in state %s", ErrInvalidTransition, s.state)
	}
	s.filters = sel.Clone()
	s.updatedAt = time.Now()
	return s.snapshotLocked(), nil
}

// Replace commits a fully built area from any state, abandoning drafts and
// edits. The session ends up Placed with a new generation.
func (s *Session) Replace(area AreaOfInterest) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := area.Validate(); err != nil {
		return s.snapshotLocked(), err
	}
	s.commit(area.Clone())
	s.state = StatePlaced
	s.updatedAt = time.Now()
	return s.snapshotLocked(), nil
}

// RunContext returns the context and generation an analysis should bind to
func (s *Session) RunContext() (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx, s.generation
}

// IsCurrent reports whether gen is still the live generation
func (s *Session) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen && !s.area.IsZero()
}

func (s *Session) apply(ev Event) error {
	switch s.state {
	case StateIdle:
		switch ev.Type {
		case EventStartRectangle:
			s.resetDraft()
			s.state = StateDrawingRectangle
			return nil
		case EventStartPolygon:
			s.resetDraft()
			s.state = StateDrawingPolygon
			return nil
		case EventPlaceBoundary:
			if ev.Area == nil {
				return ErrEmptyArea
			}
			if err := ev.Area.Validate(); err != nil {
				return err
			}
			s.commit(ev.Area.Clone())
			s.state = StatePlaced
			return nil
		}

	case StateDrawingRectangle:
		switch ev.Type {
		case EventPointerDown:
			if ev.Pick == nil {
				return s.abort(ErrUnresolvedPick)
			}
			p := *ev.Pick
			s.start, s.current, s.dragging = &p, nil, true
			return nil
		case EventPointerMove:
			if s.dragging {
				s.current = copyPick(ev.Pick)
			}
			return nil
		case EventPointerUp:
			if ev.Pick != nil {
				s.current = copyPick(ev.Pick)
			}
			if !s.dragging || s.start == nil || s.current == nil {
				return s.abort(ErrUnresolvedPick)
			}
			area, err := BuildRectangle(s.start, s.current)
			if err != nil {
				return s.abort(err)
			}
			s.commit(area)
			s.state = StatePlaced
			return nil
		case EventCancel:
			s.resetDraft()
			s.state = StateIdle
			return nil
		}

	case StateDrawingPolygon:
		switch ev.Type {
		case EventAddVertex:
			s.picks = append(s.picks, copyPick(ev.Pick))
			return nil
		case EventFinishPolygon:
			area, err := BuildPolygon(s.picks)
			if err != nil {
				return s.abort(err)
			}
			s.commit(area)
			s.state = StatePlaced
			return nil
		case EventCancel:
			s.resetDraft()
			s.state = StateIdle
			return nil
		}

	case StatePlaced, StateActive:
		switch ev.Type {
		case EventActivate:
			s.state = StateActive
			return nil
		case EventDeactivate:
			if s.state != StateActive {
				break
			}
			s.nextGeneration()
			s.filters = FilterSelection{}
			s.state = StatePlaced
			return nil
		case EventBeginEdit:
			if !Editable(s.area) {
				// edit control is disabled for polygons
				return nil
			}
			s.editFrom = s.state
			s.editRect = *s.area.Rect
			s.state = StateEditing
			return nil
		case EventDelete:
			s.nextGeneration()
			s.area = AreaOfInterest{}
			s.filters = FilterSelection{}
			s.resetDraft()
			s.state = StateIdle
			return nil
		}

	case StateEditing:
		switch ev.Type {
		case EventDragCorner:
			if ev.Pick == nil {
				return ErrUnresolvedPick
			}
			corner, err := ParseCorner(string(ev.Corner))
			if err != nil {
				return err
			}
			s.editRect = EditCorner(s.editRect, corner, *ev.Pick)
			return nil
		case EventSaveEdit:
			if err := s.editRect.Validate(); err != nil {
				return err
			}
			s.commit(NewRectangleAOI(s.editRect))
			s.state = s.editFrom
			return nil
		case EventCancelEdit:
			s.state = s.editFrom
			return nil
		}
	}

	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev.Type, s.state)
}

// commit replaces the AOI wholesale and starts a new generation
func (s *Session) commit(area AreaOfInterest) {
	s.nextGeneration()
	s.area = area
	s.filters = FilterSelection{}
	s.resetDraft()
}

func (s *Session) nextGeneration() {
	s.cancel()
	s.generation++
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *Session) abort(err error) error {
	s.resetDraft()
	s.state = StateIdle
	return err
}

func (s *Session) resetDraft() {
	s.dragging = false
	s.start, s.current = nil, nil
	s.picks = nil
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Owner:      s.owner,
		State:      s.state,
		Generation: s.generation,
		Filters:    s.filters.Clone(),
		Editable:   Editable(s.area),
		UpdatedAt:  s.updatedAt,
	}
	if !s.area.IsZero() {
		a := s.area.Clone()
		snap.Area = &a
	}
	switch s.state {
	case StateDrawingRectangle:
		if s.start != nil {
			end := s.start
			if s.current != nil {
				end = s.current
			}
			r := Rectangle{West: s.start.Lon, South: s.start.Lat, East: end.Lon, North: end.Lat}.Normalize()
			snap.Preview = &r
		}
	case StateDrawingPolygon:
		snap.Vertices = len(s.picks)
	case StateEditing:
		r := s.editRect
		snap.Preview = &r
	}
	return snap
}

func copyPick(p *spatial.LonLat) *spatial.LonLat {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
