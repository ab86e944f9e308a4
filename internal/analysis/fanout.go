package analysis

import (
	"context"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/metrics"
	"github.com/jengzang/urban-twin-go/internal/spatial"
)

// FanOutOptions bounds one filter's concurrent lookups
type FanOutOptions struct {
	Filter  aoi.FilterID
	Timeout time.Duration // per point; 0 means no extra deadline
	Limit   int           // max lookups in flight; 0 means unbounded
}

// Sample is one successful lookup
type Sample[T any] struct {
	Point spatial.LonLat
	Value T
}

// LookupFunc fetches the value for one sample point in degrees
type LookupFunc[T any] func(ctx context.Context, p spatial.LonLat) (T, error)

// FanOut runs lookup for every point concurrently and waits for all of them
// to settle. Each lookup gets its own timeout. Failed points are logged and
// left out; successful samples keep the input order.
func FanOut[T any](ctx context.Context, opts FanOutOptions, points []spatial.LonLat, lookup LookupFunc[T]) ([]Sample[T], int) {
	type outcome struct {
		value T
		ok    bool
	}
	outcomes := make([]outcome, len(points))

	var g errgroup.Group
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}

	for i, p := range points {
		i, p := i, p
		g.Go(func() error {
			pctx, cancel := ctx, context.CancelFunc(func() {})
			if opts.Timeout > 0 {
				pctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			}
			defer cancel()

			v, err := lookup(pctx, p)
			if err != nil {
				metrics.LookupsTotal.WithLabelValues(string(opts.Filter), "error").Inc()
				log.WithError(err).WithFields(log.Fields{
					"filter": opts.Filter,
					"lat":    p.Lat,
					"lon":    p.Lon,
				}).Warn("point lookup failed")
				return nil
			}
			metrics.LookupsTotal.WithLabelValues(string(opts.Filter), "ok").Inc()
			outcomes[i] = outcome{value: v, ok: true}
			return nil
		})
	}
	// lookups never return an error to the group; Wait is only the join
	_ = g.Wait()

	samples := make([]Sample[T], 0, len(points))
	for i, o := range outcomes {
		if o.ok {
			samples = append(samples, Sample[T]{Point: points[i], Value: o.value})
		}
	}
	return samples, len(points) - len(samples)
}
