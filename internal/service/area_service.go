package service

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/apex/log"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/repository"
	"github.com/jengzang/urban-twin-go/internal/spatial"
)

// AreaStore persists one AOI per owner
type AreaStore interface {
	Save(rec *models.AreaRecord) error
	GetByOwner(owner string) (*models.AreaRecord, error)
	DeleteByOwner(owner string) error
}

// AreaService handles AOI construction and the interaction lifecycle. The
// in-memory sessions are authoritative; the store only lets an AOI survive a
// restart.
type AreaService struct {
	sessions *aoi.SessionStore
	sampler  *aoi.Sampler
	repo     AreaStore // nil disables persistence

	mu      sync.Mutex
	areaIDs map[string]int64
}

// NewAreaService creates a new area service
func NewAreaService(sessions *aoi.SessionStore, sampler *aoi.Sampler, repo AreaStore) *AreaService {
	return &AreaService{
		sessions: sessions,
		sampler:  sampler,
		repo:     repo,
		areaIDs:  make(map[string]int64),
	}
}

// Session returns the owner's session, restoring a persisted AOI the first
// time the owner is seen
func (s *AreaService) Session(owner string) *aoi.Session {
	sess, existed := s.sessions.Get(owner)
	if existed || s.repo == nil {
		return sess
	}

	rec, err := s.repo.GetByOwner(owner)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.WithError(err).WithField("owner", owner).Warn("failed to restore area")
		}
		return sess
	}
	if rec.Geometry == nil {
		return sess
	}

	area, err := aoi.FromGeometry(rec.Geometry)
	if err != nil {
		log.WithError(err).WithField("owner", owner).Warn("stored area is invalid")
		return sess
	}
	if rec.Kind == string(aoi.KindRectangle) {
		area = aoi.NewRectangleAOI(area.Bounds())
	}
	if _, err := sess.Replace(area); err != nil {
		log.WithError(err).WithField("owner", owner).Warn("stored area is invalid")
		return sess
	}

	s.mu.Lock()
	s.areaIDs[owner] = rec.ID
	s.mu.Unlock()
	log.WithFields(log.Fields{"owner": owner, "kind": rec.Kind}).Info("restored area")
	return sess
}

// AreaID returns the persisted id of the owner's AOI, 0 if unknown
func (s *AreaService) AreaID(owner string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areaIDs[owner]
}

// View returns the session with its geometry and summary
func (s *AreaService) View(owner string) models.AOIResponse {
	return s.view(s.Session(owner).Snapshot())
}

// BuildRectangle replaces the AOI with the rectangle spanned by two picks
func (s *AreaService) BuildRectangle(owner string, req models.RectangleRequest) (models.AOIResponse, error) {
	area, err := aoi.BuildRectangle(toRadians(req.Start), toRadians(req.End))
	if err != nil {
		return models.AOIResponse{}, invalid(err)
	}
	return s.replace(owner, area)
}

// BuildPolygon replaces the AOI with a polygon through the picks
func (s *AreaService) BuildPolygon(owner string, req models.PolygonRequest) (models.AOIResponse, error) {
	picks := make([]*spatial.LonLat, len(req.Picks))
	for i, p := range req.Picks {
		picks[i] = toRadians(p)
	}
	area, err := aoi.BuildPolygon(picks)
	if err != nil {
		return models.AOIResponse{}, invalid(err)
	}
	return s.replace(owner, area)
}

// PlaceBoundary replaces the AOI with an administrative boundary
func (s *AreaService) PlaceBoundary(owner string, req models.BoundaryRequest) (models.AOIResponse, error) {
	var (
		area aoi.AreaOfInterest
		err  error
	)
	switch {
	case req.Feature != nil:
		area, err = aoi.FromBoundary(req.Feature)
	case req.Geometry != nil:
		area, err = aoi.FromGeometry(req.Geometry)
	default:
		err = aoi.ErrUnsupportedGeometry
	}
	if err != nil {
		return models.AOIResponse{}, invalid(err)
	}
	return s.replace(owner, area)
}

func (s *AreaService) replace(owner string, area aoi.AreaOfInterest) (models.AOIResponse, error) {
	sess := s.Session(owner)
	before := sess.Snapshot()
	snap, err := sess.Replace(area)
	if err != nil {
		return s.view(snap), invalid(err)
	}
	s.persist(owner, before, snap)
	return s.view(snap), nil
}

// HandleEvent feeds one pointer or lifecycle event to the state machine
func (s *AreaService) HandleEvent(owner string, req models.EventRequest) (models.AOIResponse, error) {
	ev, err := eventFromRequest(req)
	if err != nil {
		return s.View(owner), err
	}
	return s.handle(owner, ev)
}

// DragCorner moves one corner of the rectangle being edited
func (s *AreaService) DragCorner(owner string, req models.CornerRequest) (models.AOIResponse, error) {
	corner, err := aoi.ParseCorner(req.Corner)
	if err != nil {
		return s.View(owner), invalid(err)
	}
	return s.handle(owner, aoi.Event{Type: aoi.EventDragCorner, Corner: corner, Pick: toRadians(req.Pick)})
}

// Activate marks the AOI active
func (s *AreaService) Activate(owner string) (models.AOIResponse, error) {
	return s.handle(owner, aoi.Event{Type: aoi.EventActivate})
}

// Deactivate ends the active generation and clears filters
func (s *AreaService) Deactivate(owner string) (models.AOIResponse, error) {
	return s.handle(owner, aoi.Event{Type: aoi.EventDeactivate})
}

// Delete removes the AOI
func (s *AreaService) Delete(owner string) (models.AOIResponse, error) {
	return s.handle(owner, aoi.Event{Type: aoi.EventDelete})
}

func (s *AreaService) handle(owner string, ev aoi.Event) (models.AOIResponse, error) {
	sess := s.Session(owner)
	before := sess.Snapshot()
	snap, err := sess.Handle(ev)
	s.persist(owner, before, snap)
	if err != nil && !errors.Is(err, aoi.ErrInvalidTransition) {
		err = invalid(err)
	}
	return s.view(snap), err
}

// SetFilters replaces the filter selection of the committed AOI
func (s *AreaService) SetFilters(owner string, req models.FiltersRequest) (models.AOIResponse, error) {
	sel := aoi.FilterSelection{}
	for name, on := range req.Filters {
		id, err := aoi.ParseFilterID(name)
		if err != nil {
			return s.View(owner), invalid(err)
		}
		sel[id] = on
	}

	snap, err := s.Session(owner).SetFilters(sel)
	return s.view(snap), err
}

// Samples returns the grid points of the current AOI in degrees
func (s *AreaService) Samples(owner string, density int) (models.SamplesResponse, error) {
	if density < 0 {
		return models.SamplesResponse{}, invalid(fmt.Errorf("density must not be negative"))
	}
	snap := s.Session(owner).Snapshot()
	if snap.Area == nil {
		return models.SamplesResponse{}, fmt.Errorf("%w: no area to sample", aoi.ErrInvalidTransition)
	}

	if density == 0 {
		density = s.sampler.DensityFor(*snap.Area)
	}
	points := s.sampler.Sample(*snap.Area, density)
	return models.SamplesResponse{
		Density: density,
		Count:   len(points),
		Points:  points,
	}, nil
}

// persist mirrors a generation change into the store. Failures are logged;
// the session stays authoritative.
func (s *AreaService) persist(owner string, before, after aoi.Snapshot) {
	if s.repo == nil || before.Generation == after.Generation {
		return
	}
	logger := log.WithFields(log.Fields{"owner": owner, "generation": after.Generation})

	if after.Area == nil {
		if err := s.repo.DeleteByOwner(owner); err != nil {
			logger.WithError(err).Error("failed to delete stored area")
			return
		}
		s.mu.Lock()
		delete(s.areaIDs, owner)
		s.mu.Unlock()
		return
	}

	if before.Area != nil && sameArea(*before.Area, *after.Area) {
		// deactivate bumps the generation without changing the shape
		return
	}

	rec := &models.AreaRecord{
		Owner:      owner,
		Kind:       string(after.Area.Kind),
		Geometry:   aoi.ToGeometry(*after.Area),
		Generation: after.Generation,
	}
	if err := s.repo.Save(rec); err != nil {
		logger.WithError(err).Error("failed to save area")
		return
	}
	s.mu.Lock()
	s.areaIDs[owner] = rec.ID
	s.mu.Unlock()
}

func (s *AreaService) view(snap aoi.Snapshot) models.AOIResponse {
	resp := models.AOIResponse{Session: snap}
	if snap.Area != nil {
		resp.Geometry = aoi.ToGeometry(*snap.Area)
		sum := aoi.Summarize(*snap.Area, s.sampler)
		resp.Summary = &sum
	}
	return resp
}

func eventFromRequest(req models.EventRequest) (aoi.Event, error) {
	ev := aoi.Event{Type: aoi.EventType(req.Type), Pick: toRadians(req.Pick)}
	switch ev.Type {
	case aoi.EventStartRectangle, aoi.EventStartPolygon,
		aoi.EventPointerDown, aoi.EventPointerMove, aoi.EventPointerUp,
		aoi.EventAddVertex, aoi.EventFinishPolygon, aoi.EventCancel,
		aoi.EventActivate, aoi.EventDeactivate,
		aoi.EventBeginEdit, aoi.EventSaveEdit, aoi.EventCancelEdit,
		aoi.EventDelete:
	case aoi.EventDragCorner:
		corner, err := aoi.ParseCorner(req.Corner)
		if err != nil {
			return ev, invalid(err)
		}
		ev.Corner = corner
	default:
		// place_boundary carries geometry and has its own endpoint
		return ev, invalid(fmt.Errorf("unsupported event type %q", req.Type))
	}
	return ev, nil
}

func sameArea(a, b aoi.AreaOfInterest) bool {
	return reflect.DeepEqual(a, b)
}

func toRadians(p *spatial.LonLat) *spatial.LonLat {
	if p == nil {
		return nil
	}
	r := p.ToRadians()
	return &r
}

func invalid(err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
