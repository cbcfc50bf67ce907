// Package snapshot pulls point-in-time dashboard metrics and binds them to
// display fields.
package snapshot

import (
	"context"
	"time"

	"github.com/nexus-erp/nexusctl/internal/api"
	"github.com/nexus-erp/nexusctl/internal/clock"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/logger"
)

// Snapshot is one fetched set of aggregate metrics. Each fetch supersedes the
// previous snapshot entirely.
type Snapshot struct {
	SalesToday    float64   `json:"sales_today"`
	LowStockCount int       `json:"low_stock_count"`
	AverageTicket float64   `json:"average_ticket"`
	AIAlert       string    `json:"ai_alert,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// HasAlert reports whether the snapshot carries a non-empty AI alert.
func (s Snapshot) HasAlert() bool {
	return s.AIAlert != ""
}

// Source fetches raw dashboard KPIs. Implemented by *api.Client.
type Source interface {
	Dashboard(ctx context.Context, token string) (*api.DashboardKPIs, error)
}

// Credentials is the slice of the session guard the fetcher needs.
type Credentials interface {
	Credential() (string, bool)
	Invalidate(reason string)
}

// Fetcher performs authenticated snapshot refreshes.
type Fetcher struct {
	source  Source
	session Credentials
	clock   clock.Clock
	log     logger.Logger
}

// NewFetcher creates a fetcher reading credentials from session.
func NewFetcher(source Source, session Credentials, c clock.Clock, log logger.Logger) *Fetcher {
	return &Fetcher{
		source:  source,
		session: session,
		clock:   clock.OrReal(c),
		log:     logger.OrDefault(log),
	}
}

// Refresh fetches a new snapshot.
//
// An ErrUnauthorized response invalidates the session before returning. No
// failure class is retried here; the API client bounds retries of transport
// failures on its own.
func (f *Fetcher) Refresh(ctx context.Context) (Snapshot, error) {
	token, ok := f.session.Credential()
	if !ok {
		f.session.Invalidate("no active session")
		return Snapshot{}, errors.New(errors.ErrUnauthorized,
			"Not signed in",
			"Run 'nexusctl login' first")
	}

	kpis, err := f.source.Dashboard(ctx, token)
	if err != nil {
		f.handleFailure(err)
		return Snapshot{}, err
	}

	snap := Snapshot{
		SalesToday:    kpis.SalesToday,
		LowStockCount: kpis.LowStockCount,
		AverageTicket: kpis.AverageTicket,
		AIAlert:       kpis.AIAlert,
		FetchedAt:     f.clock.Now(),
	}
	f.log.Debug("snapshot: sales=%.2f low_stock=%d ticket=%.2f alert=%t",
		snap.SalesToday, snap.LowStockCount, snap.AverageTicket, snap.HasAlert())
	return snap, nil
}

func (f *Fetcher) handleFailure(err error) {
	switch errors.CodeOf(err) {
	case errors.ErrUnauthorized:
		f.log.Warn("dashboard rejected the session token")
		f.session.Invalidate("session expired")
	case errors.ErrRouteMissing:
		f.log.Error("dashboard route is missing; check the backend router order")
	default:
		f.log.Warn("snapshot refresh failed: %s", errors.Summarize(err))
	}
}
