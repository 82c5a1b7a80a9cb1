package projection

import (
	"context"
	"sort"

	"github.com/etnz/finsim"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// RunAll projects the scenario n times, in parallel, seeding run i with seed+i.
// Runs are returned in seed order.
func (p *Projector) RunAll(ctx context.Context, seed uint64, n int) ([]*Run, error) {
	runs := make([]*Run, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			r, err := p.Run(ctx, seed+uint64(i))
			if err != nil {
				return err
			}
			runs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Quantiles summarizes a metric of one year across runs.
type Quantiles struct {
	Year, Age     int
	P10, P50, P90 float64
}

// Summarize returns the yearly quantiles of a metric across runs.
// Every run must cover the same years.
func Summarize(runs []*Run, metric func(*finsim.DataRow) float64) []Quantiles {
	if len(runs) == 0 {
		return nil
	}
	var out []Quantiles
	values := make([]float64, len(runs))
	for y, row := range runs[0].Rows {
		for i, r := range runs {
			values[i] = metric(r.Rows[y])
		}
		sort.Float64s(values)
		out = append(out, Quantiles{
			Year: row.Year,
			Age:  row.Age,
			P10:  stat.Quantile(0.1, stat.Empirical, values, nil),
			P50:  stat.Quantile(0.5, stat.Empirical, values, nil),
			P90:  stat.Quantile(0.9, stat.Empirical, values, nil),
		})
	}
	return out
}

// Worth and WorthPV select the net worth of a row.
func Worth(r *finsim.DataRow) float64   { return r.Worth }
func WorthPV(r *finsim.DataRow) float64 { return r.WorthPV }
