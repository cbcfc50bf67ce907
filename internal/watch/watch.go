// Package watch runs the sync engine without a terminal UI, logging every
// event and exposing Prometheus metrics.
package watch

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nexus-erp/nexusctl/internal/engine"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/metrics"
	"github.com/nexus-erp/nexusctl/internal/session"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// Engine is what the watcher needs from the sync engine.
type Engine interface {
	Start(ctx context.Context) error
	Stop()
}

// Options configures Run.
type Options struct {
	Guard *session.Guard

	// NewEngine builds the engine reporting to obs.
	NewEngine func(obs engine.Observer) Engine

	Logger    *zap.Logger
	Collector *metrics.Collector

	// MetricsAddr serves /metrics and /healthz when set, e.g. ":9102".
	MetricsAddr string

	// Ready, if set, receives the metrics listener address once serving.
	Ready func(addr string)
}

// Run starts the engine and blocks until ctx is cancelled or the session
// ends. A session that is missing or invalidated returns an UNAUTHORIZED error.
func Run(ctx context.Context, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	collector := opts.Collector
	if collector == nil {
		collector = metrics.NewCollector()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		reason string
	)
	opts.Guard.SetRedirector(session.RedirectFunc(func(r string) {
		mu.Lock()
		reason = r
		mu.Unlock()
		cancel()
	}))
	defer opts.Guard.SetRedirector(nil)

	var srvErr chan error
	if opts.MetricsAddr != "" {
		ln, err := net.Listen("tcp", opts.MetricsAddr)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot listen on "+opts.MetricsAddr,
				"Pick a free address with --metrics-addr")
		}
		srv := &http.Server{Handler: newMux(collector), ReadHeaderTimeout: 5 * time.Second}
		srvErr = make(chan error, 1)
		go func() {
			if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				srvErr <- err
			}
			close(srvErr)
		}()
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
		}()
		log.Info("serving metrics", zap.String("addr", ln.Addr().String()))
		if opts.Ready != nil {
			opts.Ready(ln.Addr().String())
		}
	}

	eng := opts.NewEngine(engine.MultiObserver(newLogObserver(log), collector))
	defer eng.Stop()

	if err := eng.Start(ctx); err != nil {
		if stderrors.Is(err, engine.ErrNoSession) {
			return errors.New(errors.ErrUnauthorized,
				"Not signed in",
				"Run 'nexusctl login' first")
		}
		return err
	}
	log.Info("watching")

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Metrics server failed", "")
		}
		<-ctx.Done()
	}

	mu.Lock()
	defer mu.Unlock()
	if reason != "" {
		log.Warn("session ended", zap.String("reason", reason))
		return errors.New(errors.ErrUnauthorized,
			"Session ended: "+reason,
			"Run 'nexusctl login' to sign in again")
	}
	log.Info("stopped")
	return nil
}

func newMux(c *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
