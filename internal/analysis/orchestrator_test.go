package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
)

type stubAnalyzer struct {
	id    aoi.FilterID
	calls *[]aoi.FilterID
	hook  func()
}

func (s *stubAnalyzer) Filter() aoi.FilterID { return s.id }

func (s *stubAnalyzer) Analyze(ctx context.Context, req Request) models.AnalysisResult {
	*s.calls = append(*s.calls, s.id)
	if s.hook != nil {
		s.hook()
	}
	return models.AnalysisResult{Filter: string(s.id), Status: models.ResultStatusOK}
}

type guardFunc func(uint64) bool

func (g guardFunc) IsCurrent(gen uint64) bool { return g(gen) }

func testArea() aoi.AreaOfInterest {
	return aoi.NewRectangleAOI(aoi.Rectangle{West: -1.7, South: 0.5, East: -1.6, North: 0.6})
}

func TestOrchestrator_RunsSequentiallyWithProgress(t *testing.T) {
	var calls []aoi.FilterID
	var events []Progress

	o := NewOrchestratorWith(
		&stubAnalyzer{id: aoi.FilterTemperature, calls: &calls},
		&stubAnalyzer{id: aoi.FilterAviation, calls: &calls},
	)

	results, err := o.Run(context.Background(), Request{Owner: "u1", Area: testArea()},
		[]aoi.FilterID{aoi.FilterAviation, aoi.FilterTemperature},
		func(p Progress) { events = append(events, p) })
	require.NoError(t, err)

	assert.Equal(t, []aoi.FilterID{aoi.FilterAviation, aoi.FilterTemperature}, calls)
	assert.Len(t, results, 2)

	require.Len(t, events, 4)
	assert.Equal(t, StageStarted, events[0].Stage)
	assert.Equal(t, aoi.FilterAviation, events[0].Filter)
	assert.Equal(t, StageCompleted, events[1].Stage)
	assert.Equal(t, models.ResultStatusOK, events[1].Status)
	assert.Equal(t, 2, events[2].Index)
	assert.Equal(t, 2, events[3].Total)
}

func TestOrchestrator_StaleGeneration(t *testing.T) {
	var calls []aoi.FilterID
	current := true

	o := NewOrchestratorWith(
		&stubAnalyzer{id: aoi.FilterTemperature, calls: &calls, hook: func() { current = false }},
		&stubAnalyzer{id: aoi.FilterAviation, calls: &calls},
	)

	req := Request{Area: testArea(), Generation: 3, Guard: guardFunc(func(gen uint64) bool { return current && gen == 3 })}
	results, err := o.Run(context.Background(), req, []aoi.FilterID{aoi.FilterTemperature, aoi.FilterAviation}, nil)

	assert.ErrorIs(t, err, ErrStaleArea)
	assert.Nil(t, results)
	assert.Equal(t, []aoi.FilterID{aoi.FilterTemperature}, calls)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	var calls []aoi.FilterID
	o := NewOrchestratorWith(&stubAnalyzer{id: aoi.FilterTemperature, calls: &calls})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, Request{Area: testArea()}, []aoi.FilterID{aoi.FilterTemperature}, nil)
	assert.ErrorIs(t, err, ErrStaleArea)
	assert.Empty(t, calls)
}

func TestOrchestrator_Errors(t *testing.T) {
	var calls []aoi.FilterID
	o := NewOrchestratorWith(&stubAnalyzer{id: aoi.FilterTemperature, calls: &calls})

	_, err := o.Run(context.Background(), Request{Area: testArea()}, []aoi.FilterID{aoi.FilterWeatherAlerts}, nil)
	assert.ErrorIs(t, err, ErrUnknownFilter)

	_, err = o.Run(context.Background(), Request{}, []aoi.FilterID{aoi.FilterTemperature}, nil)
	assert.ErrorIs(t, err, aoi.ErrEmptyArea)

	assert.Empty(t, calls)
}

func TestRegistry(t *testing.T) {
	RegisterAnalyzer("test_filter", func(deps Deps) Analyzer {
		var calls []aoi.FilterID
		return &stubAnalyzer{id: "test_filter", calls: &calls}
	})
	defer delete(AnalyzerRegistry, "test_filter")

	a := GetAnalyzer("test_filter", Deps{})
	require.NotNil(t, a)
	assert.Equal(t, aoi.FilterID("test_filter"), a.Filter())
	assert.Nil(t, GetAnalyzer("missing", Deps{}))
	assert.Contains(t, RegisteredFilters(), aoi.FilterID("test_filter"))
}
