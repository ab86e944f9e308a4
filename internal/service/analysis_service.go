package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/repository"
)

// RunStore persists analysis runs
type RunStore interface {
	Create(run *models.AnalysisRun) error
	Complete(run *models.AnalysisRun) error
	GetByID(id int64) (*models.AnalysisRun, error)
	ListByOwner(owner string, page, pageSize int) ([]models.AnalysisRun, int, error)
}

// ProgressPublisher receives per-filter progress events
type ProgressPublisher interface {
	Publish(p analysis.Progress)
}

// TemperatureSink is told about every successful temperature result
type TemperatureSink interface {
	StoreTemperature(owner string, generation uint64, area aoi.AreaOfInterest, points []models.TemperaturePoint)
}

// AnalysisService runs the enabled filters over an owner's active AOI
type AnalysisService struct {
	areas        *AreaService
	orchestrator *analysis.Orchestrator
	runs         RunStore
	publisher    ProgressPublisher
	temperatures TemperatureSink
}

// NewAnalysisService creates a new analysis service. publisher and
// temperatures may be nil.
func NewAnalysisService(areas *AreaService, orchestrator *analysis.Orchestrator, runs RunStore, publisher ProgressPublisher, temperatures TemperatureSink) *AnalysisService {
	return &AnalysisService{
		areas:        areas,
		orchestrator: orchestrator,
		runs:         runs,
		publisher:    publisher,
		temperatures: temperatures,
	}
}

// Run analyzes the owner's active AOI. The run is bound to the AOI
// generation current at the start; if the AOI is edited, deactivated or
// deleted meanwhile the run is recorded as stale and analysis.ErrStaleArea
// is returned together with the run.
func (s *AnalysisService) Run(ctx context.Context, owner string, req models.RunRequest) (*models.AnalysisRun, error) {
	sess := s.areas.Session(owner)
	genCtx, gen := sess.RunContext()
	snap := sess.Snapshot()
	if snap.Generation != gen {
		return nil, analysis.ErrStaleArea
	}
	if snap.Area == nil || snap.State != aoi.StateActive {
		return nil, fmt.Errorf("%w: analysis needs an active area, state is %s", aoi.ErrInvalidTransition, snap.State)
	}

	filters, err := s.filtersFor(req, snap.Filters)
	if err != nil {
		return nil, err
	}

	// cancelled by the caller or by the end of the generation
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(genCtx, cancel)
	defer stop()

	run := &models.AnalysisRun{
		Owner:      owner,
		AreaID:     s.areas.AreaID(owner),
		Generation: gen,
		Status:     models.RunStatusRunning,
		Filters:    filterNames(filters),
		StartedAt:  time.Now().UTC(),
	}
	if err := s.runs.Create(run); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	results, runErr := s.orchestrator.Run(runCtx, analysis.Request{
		Owner:      owner,
		Area:       *snap.Area,
		Generation: gen,
		Guard:      sess,
	}, filters, s.publish)

	switch {
	case runErr == nil:
		run.Status = models.RunStatusCompleted
		run.Results = make(map[string]models.AnalysisResult, len(results))
		for id, res := range results {
			run.Results[string(id)] = res
		}
	case errors.Is(runErr, analysis.ErrStaleArea):
		run.Status = models.RunStatusStale
		run.Error = runErr.Error()
	default:
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	}

	now := time.Now().UTC()
	run.CompletedAt = &now
	if err := s.runs.Complete(run); err != nil {
		log.WithError(err).WithField("run_id", run.ID).Error("failed to store analysis run")
		if runErr == nil {
			runErr = fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	if res, ok := results[aoi.FilterTemperature]; ok && res.Status == models.ResultStatusOK && s.temperatures != nil {
		s.temperatures.StoreTemperature(owner, gen, *snap.Area, res.Temperature.Points)
	}
	return run, runErr
}

// filtersFor resolves explicit request filters or falls back to the
// session's selection
func (s *AnalysisService) filtersFor(req models.RunRequest, sel aoi.FilterSelection) ([]aoi.FilterID, error) {
	var filters []aoi.FilterID
	if len(req.Filters) > 0 {
		seen := make(map[aoi.FilterID]bool)
		for _, name := range req.Filters {
			id, err := aoi.ParseFilterID(name)
			if err != nil {
				return nil, invalid(err)
			}
			if !seen[id] {
				seen[id] = true
				filters = append(filters, id)
			}
		}
	} else {
		filters = sel.Enabled()
	}

	if len(filters) == 0 {
		return nil, invalid(errors.New("no filters enabled"))
	}
	for _, id := range filters {
		if !s.orchestrator.Supports(id) {
			return nil, invalid(fmt.Errorf("%w: %s", analysis.ErrUnknownFilter, id))
		}
	}
	return filters, nil
}

func (s *AnalysisService) publish(p analysis.Progress) {
	if s.publisher != nil {
		s.publisher.Publish(p)
	}
}

// GetRun returns one of the owner's runs
func (s *AnalysisService) GetRun(owner string, id int64) (*models.AnalysisRun, error) {
	run, err := s.runs.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if run.Owner != owner {
		return nil, repository.ErrNotFound
	}
	return run, nil
}

// ListRuns returns one page of the owner's runs, newest first
func (s *AnalysisService) ListRuns(owner string, filter models.RunFilter) (*models.RunListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	runs, total, err := s.runs.ListByOwner(owner, filter.Page, filter.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &models.RunListResponse{
		Runs:     runs,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func filterNames(ids []aoi.FilterID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}
