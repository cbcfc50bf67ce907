package cli

import (
	"github.com/nexus-erp/nexusctl/internal/api"
	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/config"
	"github.com/nexus-erp/nexusctl/internal/engine"
	"github.com/nexus-erp/nexusctl/internal/logger"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/session"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

// cmdEnv holds the pieces every command builds from the config.
type cmdEnv struct {
	cfg    *config.Config
	store  *session.FileStore
	guard  *session.Guard
	client *api.Client
	log    logger.Logger
}

// loadRuntime loads and validates the config named by --config (or found on
// the search path) and wires the client and session guard.
func loadRuntime(log logger.Logger) (*cmdEnv, error) {
	cfg, _, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg, log)
}

func newRuntime(cfg *config.Config, log logger.Logger) (*cmdEnv, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	log = logger.OrDefault(log)

	store, err := session.NewFileStore(cfg.Session.File)
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		NetworkRetries: cfg.API.NetworkRetries,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	return &cmdEnv{
		cfg:    cfg,
		store:  store,
		guard:  session.NewGuard(store, nil, log),
		client: client,
		log:    log,
	}, nil
}

// newEngine builds a sync engine reporting to obs.
func (r *cmdEnv) newEngine(obs engine.Observer, dialer channel.Dialer) *engine.Engine {
	if dialer == nil {
		dialer = channel.NewWebsocketDialer(nil)
	}
	return engine.New(engine.Options{
		Session:  r.guard,
		Fetcher:  r.newFetcher(),
		Buffer:   series.NewBuffer(nil),
		Observer: obs,
		Logger:   r.log,
		Channel: channel.Options{
			URL:          r.client.ChannelURL(r.cfg.Channel.Path),
			Dialer:       dialer,
			Logger:       r.log,
			LegacyMarker: r.cfg.Channel.LegacyMarker,
		},
		SeedPoints:      r.cfg.Chart.SeedPoints,
		RefreshSchedule: r.cfg.Snapshot.RefreshSchedule,
	})
}

func (r *cmdEnv) newFetcher() *snapshot.Fetcher {
	return snapshot.NewFetcher(r.client, r.guard, nil, r.log)
}
