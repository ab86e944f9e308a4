package analysis

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/weather"
)

var (
	// ErrStaleArea means the AOI changed or was deleted while a run was in
	// flight. Results of that run are discarded.
	ErrStaleArea     = errors.New("area of interest changed during analysis")
	ErrUnknownFilter = errors.New("unknown analysis filter")
)

// Analyzer is the interface that every analysis filter implements
type Analyzer interface {
	// Filter returns the filter this analyzer serves
	Filter() aoi.FilterID

	// Analyze runs the filter over an AOI. Per-point failures and empty
	// results are reported through the result's Status, never as a panic or
	// error.
	Analyze(ctx context.Context, req Request) models.AnalysisResult
}

// WeatherSource is the remote lookup surface analyzers depend on
type WeatherSource interface {
	GridForecast(ctx context.Context, lat, lon float64) (*weather.GridForecast, error)
	ActiveAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error)
}

// GenerationGuard reports whether an AOI generation is still live
type GenerationGuard interface {
	IsCurrent(gen uint64) bool
}

// Request is the input of one run
type Request struct {
	Owner      string
	Area       aoi.AreaOfInterest
	Generation uint64
	Guard      GenerationGuard // nil disables the staleness check
}

func (r Request) stale(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return r.Guard != nil && !r.Guard.IsCurrent(r.Generation)
}

// Stage of a filter within a run
type Stage string

const (
	StageStarted   Stage = "started"
	StageCompleted Stage = "completed"
)

// Progress represents the progress of one filter within a run
type Progress struct {
	Owner    string       `json:"owner"`
	Filter   aoi.FilterID `json:"filter"`
	Stage    Stage        `json:"stage"`
	Index    int          `json:"index"` // 1-based position of the filter in the run
	Total    int          `json:"total"` // filters in the run
	Status   string       `json:"status,omitempty"`
	Message  string       `json:"message,omitempty"`
	Duration float64      `json:"duration_seconds,omitempty"`
}

// ProgressFunc receives progress events in order. It must not block.
type ProgressFunc func(Progress)

// Options are the shared tunables of all analyzers
type Options struct {
	LookupTimeout        time.Duration
	MaxConcurrentLookups int
	AviationDensity      int
	AlertsDensity        int
}

// DefaultOptions returns the built-in analyzer tunables
func DefaultOptions() Options {
	return Options{
		LookupTimeout:        8 * time.Second,
		MaxConcurrentLookups: 16,
		AviationDensity:      3,
		AlertsDensity:        3,
	}
}

// Deps are handed to analyzer factories
type Deps struct {
	Weather WeatherSource
	Sampler *aoi.Sampler
	Options Options
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	Deps
	ID aoi.FilterID
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(deps Deps, id aoi.FilterID) *BaseAnalyzer {
	return &BaseAnalyzer{Deps: deps, ID: id}
}

// Filter returns the analyzer's filter id
func (a *BaseAnalyzer) Filter() aoi.FilterID {
	return a.ID
}

// FanOutOptions builds per-filter fan-out settings from the shared options
func (a *BaseAnalyzer) FanOutOptions() FanOutOptions {
	return FanOutOptions{
		Filter:  a.ID,
		Timeout: a.Options.LookupTimeout,
		Limit:   a.Options.MaxConcurrentLookups,
	}
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(deps Deps) Analyzer

// AnalyzerRegistry maps filter ids to analyzer factories
var AnalyzerRegistry = make(map[aoi.FilterID]AnalyzerFactory)

// RegisterAnalyzer registers an analyzer factory for a filter id
func RegisterAnalyzer(id aoi.FilterID, factory AnalyzerFactory) {
	AnalyzerRegistry[id] = factory
}

// GetAnalyzer creates an analyzer for a filter id, or nil if none is
// registered
func GetAnalyzer(id aoi.FilterID, deps Deps) Analyzer {
	factory, ok := AnalyzerRegistry[id]
	if !ok {
		return nil
	}
	return factory(deps)
}

// RegisteredFilters lists filter ids with a registered analyzer
func RegisteredFilters() []aoi.FilterID {
	ids := make([]aoi.FilterID, 0, len(AnalyzerRegistry))
	for id := range AnalyzerRegistry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
