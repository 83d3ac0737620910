package main

import (
	"context"
	"fmt"
	"math"

	"github.com/ryhazerus/swc"
	"github.com/ryhazerus/swc/internal/config"
	"github.com/ryhazerus/swc/store"
	"github.com/spf13/cobra"
)

// rangeFlags are the --since and --until flags shared by the query commands.
type rangeFlags struct {
	since int64
	until int64
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&r.since, "since", 0, "start of the range as a unix timestamp (default: oldest bucket with data)")
	cmd.Flags().Int64Var(&r.until, "until", 0, "end of the range as a unix timestamp (default: now)")
}

func (r *rangeFlags) options(cmd *cobra.Command) []swc.RangeOption {
	var opts []swc.RangeOption
	if cmd.Flags().Changed("since") {
		opts = append(opts, swc.Since(r.since))
	}
	if cmd.Flags().Changed("until") {
		opts = append(opts, swc.Until(r.until))
	}
	return opts
}

func newIncrCmd(a *app) *cobra.Command {
	var (
		step int64
		at   int64
	)

	cmd := &cobra.Command{
		Use:   "incr <key>",
		Short: "Add to the bucket holding the current time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				var (
					v   int64
					err error
				)
				if cmd.Flags().Changed("at") {
					v, err = s.counter.IncrementAt(ctx, args[0], step, at)
				} else {
					v, err = s.counter.Increment(ctx, args[0], step)
				}
				if err != nil {
					return err
				}
				return a.emit(struct {
					Key   string `json:"key"`
					Value int64  `json:"value"`
				}{args[0], v})
			})
		},
	}

	cmd.Flags().Int64Var(&step, "step", 1, "amount to add")
	cmd.Flags().Int64Var(&at, "at", 0, "unix timestamp of the event (default: now)")
	return cmd
}

func newSeriesCmd(a *app) *cobra.Command {
	var r rangeFlags

	cmd := &cobra.Command{
		Use:   "series <key>",
		Short: "Print the extrapolated sliding-window series, one point per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				series, err := s.counter.TimeSeries(ctx, args[0], r.options(cmd)...)
				if err != nil {
					return err
				}
				for series.Next() {
					if err := a.emit(series.Point()); err != nil {
						return err
					}
				}
				return series.Err()
			})
		},
	}

	r.register(cmd)
	return cmd
}

func newLatestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <key>",
		Short: "Print the sliding-window value at the current time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				v, err := s.counter.LatestValue(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(struct {
					Key   string  `json:"key"`
					Value float64 `json:"value"`
				}{args[0], v})
			})
		},
	}
}

// varianceOutput is the JSON form of a running variance. Undefined statistics
// are reported as null.
type varianceOutput struct {
	Key               string   `json:"key"`
	Count             int      `json:"count"`
	Mean              *float64 `json:"mean"`
	Variance          *float64 `json:"variance"`
	StandardDeviation *float64 `json:"std_dev"`
	Min               *float64 `json:"min"`
	Max               *float64 `json:"max"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newVarianceCmd(a *app) *cobra.Command {
	var r rangeFlags

	cmd := &cobra.Command{
		Use:   "variance <key>",
		Short: "Print statistics of the series, excluding the current point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				v, err := s.counter.HistoricVariance(ctx, args[0], r.options(cmd)...)
				if err != nil {
					return err
				}
				out := varianceOutput{
					Key:               args[0],
					Count:             v.Count(),
					Mean:              finite(v.Mean()),
					Variance:          finite(v.Variance()),
					StandardDeviation: finite(v.StandardDeviation()),
				}
				if v.Count() > 0 {
					out.Min, out.Max = finite(v.Min()), finite(v.Max())
				}
				return a.emit(out)
			})
		},
	}

	r.register(cmd)
	return cmd
}

// anomalyOutput is the JSON form of an anomaly check. Without enough
// history the statistics and bounds are null and the result is "none".
type anomalyOutput struct {
	Key         string        `json:"key"`
	Anomaly     bool          `json:"anomaly"`
	StdDev      *float64      `json:"std_dev"`
	Mean        *float64      `json:"mean"`
	Sensitivity int           `json:"sensitivity"`
	Low         *float64      `json:"low"`
	High        *float64      `json:"high"`
	Latest      float64       `json:"latest"`
	Direction   swc.Direction `json:"direction"`
	Hops        float64       `json:"hops"`
}

func newAnomalyCmd(a *app) *cobra.Command {
	var (
		r           rangeFlags
		sensitivity int
		precision   int
	)

	cmd := &cobra.Command{
		Use:   "anomaly <key>",
		Short: "Compare the latest value with the history of the series",
		Long: `Compare the latest value with the history of the series.

The expected range is the historic mean plus or minus sensitivity standard
deviations, widened to whole numbers. Sensitivity 3 is low (99.7%), 2 is
standard (95%) and 1 is high (68%).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sensitivity < 1 {
				return fmt.Errorf("--sensitivity must be at least 1, got %d", sensitivity)
			}
			return a.run(cmd, func(ctx context.Context, s *session) error {
				res, err := s.counter.DetectAnomaly(ctx, args[0], sensitivity, r.options(cmd)...)
				if err != nil {
					return err
				}
				snap := res.Snapshot(precision)
				return a.emit(anomalyOutput{
					Key:         args[0],
					Anomaly:     res.IsAnomaly(),
					StdDev:      finite(snap.StdDev),
					Mean:        finite(snap.Mean),
					Sensitivity: snap.Sensitivity,
					Low:         finite(snap.Low),
					High:        finite(snap.High),
					Latest:      snap.Latest,
					Direction:   snap.Direction,
					Hops:        snap.Hops,
				})
			})
		},
	}

	r.register(cmd)
	cmd.Flags().IntVar(&sensitivity, "sensitivity", swc.DefaultSensitivity, "number of standard deviations tolerated")
	cmd.Flags().IntVar(&precision, "precision", 2, "decimal places in the output")
	return cmd
}

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// sweep deletes expired buckets from cache if the backend keeps them around.
func sweep(ctx context.Context, cache store.CounterCache) (int, error) {
	sw, ok := cache.(sweeper)
	if !ok {
		return 0, fmt.Errorf("sweep: %T cannot delete expired buckets", cache)
	}
	return sw.Sweep(ctx)
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired buckets from a SQLite store",
		Long: `Delete expired buckets from a SQLite store.

Redis and Memcached expire keys on their own; expired SQLite rows are ignored
by reads but only removed by a sweep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			_, cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.BackendSQLite {
				return fmt.Errorf("sweep is only supported for the sqlite backend, not %q", cfg.Store.Backend)
			}

			// Unwrapped, so the store's own Sweep is reachable.
			cfg.Store.Tiered = false
			cache, err := config.OpenStore(ctx, cfg.Store, nil)
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := sweep(ctx, cache)
			if err != nil {
				return err
			}
			return a.emit(struct {
				Removed int `json:"removed"`
			}{n})
		},
	}
}
