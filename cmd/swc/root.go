package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/ryhazerus/swc"
	"github.com/ryhazerus/swc/internal/config"
	"github.com/ryhazerus/swc/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	metrics    bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:   "swc",
		Short: "Sliding window counters with anomaly detection",
		Long: `swc counts events per key in fixed-size buckets kept in an expiring cache
(memory, SQLite, Redis or Memcached) and reconstructs a sliding-window time
series from them to spot anomalous activity.

Configuration is read from --config, or swc.yaml in the working directory or
$HOME/.swc, and can be overridden with SWC_* environment variables, e.g.
SWC_STORE_BACKEND=redis SWC_STORE_REDIS_ADDR=localhost:6379.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the config file")
	cmd.PersistentFlags().BoolVar(&a.metrics, "metrics", false, "print cache metrics to stderr on exit")

	cmd.AddCommand(
		newIncrCmd(a),
		newSeriesCmd(a),
		newLatestCmd(a),
		newVarianceCmd(a),
		newAnomalyCmd(a),
		newSweepCmd(a),
	)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd
}

// session is one opened counter and the resources behind it.
type session struct {
	counter  *swc.Counter
	cache    store.CounterCache
	logger   *zap.Logger
	registry *prometheus.Registry
}

func (a *app) open(ctx context.Context) (*session, error) {
	_, cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	s := &session{logger: logger}

	var metrics *store.Metrics
	if a.metrics || cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		if metrics, err = store.NewMetrics(s.registry); err != nil {
			return nil, err
		}
	}

	s.cache, err = config.OpenStore(ctx, cfg.Store, metrics)
	if err != nil {
		return nil, err
	}

	s.counter, err = swc.New(cfg.SWC(), s.cache, swc.SystemClock{}, swc.WithLogger(logger))
	if err != nil {
		s.cache.Close()
		return nil, err
	}

	logger.Debug("counter opened",
		zap.String("namespace", cfg.Counter.Namespace),
		zap.String("backend", cfg.Store.Backend),
		zap.Duration("window", cfg.Counter.Window),
		zap.Duration("observation_period", cfg.Counter.ObservationPeriod),
	)
	return s, nil
}

// close releases the cache and prints the collected metrics, if any.
func (a *app) close(s *session) error {
	err := s.cache.Close()

	if s.registry != nil {
		families, gerr := s.registry.Gather()
		if gerr != nil {
			err = errors.Join(err, gerr)
		}
		for _, mf := range families {
			if _, werr := expfmt.MetricFamilyToText(a.stderr, mf); werr != nil {
				err = errors.Join(err, werr)
				break
			}
		}
	}

	_ = s.logger.Sync()
	return err
}

// run opens a session, calls fn and closes the session.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(s); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	return fn(ctx, s)
}

func (a *app) emit(v any) error {
	return json.NewEncoder(a.stdout).Encode(v)
}
