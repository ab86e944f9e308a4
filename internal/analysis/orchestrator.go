package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/metrics"
	"github.com/jengzang/urban-twin-go/internal/models"
)

// Orchestrator runs enabled filters over an AOI. Analyzer instances are
// created once so per-filter state such as busy flags is shared between
// runs.
type Orchestrator struct {
	analyzers map[aoi.FilterID]Analyzer
}

// NewOrchestrator instantiates every registered analyzer
func NewOrchestrator(deps Deps) *Orchestrator {
	o := &Orchestrator{analyzers: make(map[aoi.FilterID]Analyzer)}
	for id, factory := range AnalyzerRegistry {
		o.analyzers[id] = factory(deps)
	}
	return o
}

// NewOrchestratorWith uses the given analyzers instead of the registry
func NewOrchestratorWith(analyzers ...Analyzer) *Orchestrator {
	o := &Orchestrator{analyzers: make(map[aoi.FilterID]Analyzer)}
	for _, a := range analyzers {
		o.analyzers[a.Filter()] = a
	}
	return o
}

// Supports reports whether a filter has an analyzer
func (o *Orchestrator) Supports(id aoi.FilterID) bool {
	_, ok := o.analyzers[id]
	return ok
}

// Run executes each filter once, one after another, emitting a started and
// a completed progress event around each. If the AOI goes stale the run
// stops with ErrStaleArea and no results are returned.
func (o *Orchestrator) Run(ctx context.Context, req Request, filters []aoi.FilterID, progress ProgressFunc) (map[aoi.FilterID]models.AnalysisResult, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	if err := req.Area.Validate(); err != nil {
		return nil, err
	}
	for _, id := range filters {
		if !o.Supports(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, id)
		}
	}

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()

	logger := log.WithFields(log.Fields{
		"owner":      req.Owner,
		"generation": req.Generation,
		"filters":    len(filters),
	})
	logger.Info("analysis run started")

	results := make(map[aoi.FilterID]models.AnalysisResult, len(filters))
	for i, id := range filters {
		if req.stale(ctx) {
			return nil, o.stale(logger, id)
		}

		progress(Progress{Owner: req.Owner, Filter: id, Stage: StageStarted, Index: i + 1, Total: len(filters)})

		start := time.Now()
		res := o.analyzers[id].Analyze(ctx, req)
		elapsed := time.Since(start)
		metrics.FilterDurationSeconds.WithLabelValues(string(id), res.Status).Observe(elapsed.Seconds())

		if req.stale(ctx) {
			return nil, o.stale(logger, id)
		}

		results[id] = res
		progress(Progress{
			Owner:    req.Owner,
			Filter:   id,
			Stage:    StageCompleted,
			Index:    i + 1,
			Total:    len(filters),
			Status:   res.Status,
			Message:  res.Message,
			Duration: elapsed.Seconds(),
		})
		logger.WithFields(log.Fields{
			"filter":  id,
			"status":  res.Status,
			"elapsed": elapsed.String(),
		}).Info("filter completed")
	}

	metrics.RunsTotal.WithLabelValues(models.RunStatusCompleted).Inc()
	return results, nil
}

func (o *Orchestrator) stale(logger log.Interface, id aoi.FilterID) error {
	metrics.RunsTotal.WithLabelValues(models.RunStatusStale).Inc()
	logger.WithField("filter", id).Info("area changed, discarding run")
	return ErrStaleArea
}
