package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nexus-erp/nexusctl/internal/errors"
)

// StatusError carries a non-success HTTP status and the server's detail text.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

// DashboardKPIs is a decoded, validated dashboard response.
type DashboardKPIs struct {
	SalesToday    float64
	LowStockCount int
	AverageTicket float64
	AIAlert       string
}

// dashboardPayload mirrors the wire format. Pointers tell missing from zero.
type dashboardPayload struct {
	SalesToday    *float64 `json:"ventas_hoy"`
	LowStockCount *int     `json:"productos_bajo_stock"`
	AverageTicket *float64 `json:"ticket_promedio"`
	AIAlert       *string  `json:"alerta_ia"`
}

// Dashboard fetches the KPI snapshot with a bearer token.
//
// Responses are classified in order: 401 is ErrUnauthorized, 404 is
// ErrRouteMissing, any other non-2xx is ErrServer wrapping *StatusError, and
// a 2xx body missing a required field is ErrMalformed.
func (c *Client) Dashboard(ctx context.Context, token string) (*DashboardKPIs, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(DashboardPath), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := readBody(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.New(errors.ErrUnauthorized,
			"Session expired",
			"Run 'nexusctl login' to sign in again")
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrRouteMissing,
			"Dashboard endpoint not found ("+DashboardPath+")",
			"The backend must mount the admin router before the market router")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		detail := ""
		if readErr == nil {
			detail = errorDetail(body)
		}
		return nil, errors.WrapWithCode(&StatusError{Status: resp.StatusCode, Detail: detail},
			errors.ErrServer, "Server error", "")
	}

	if readErr != nil {
		return nil, errors.WrapWithCode(readErr, errors.ErrNetwork,
			"Connection dropped while reading the dashboard", "")
	}
	return decodeDashboard(body)
}

func decodeDashboard(body []byte) (*DashboardKPIs, error) {
	var p dashboardPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrMalformed,
			"Dashboard response is not valid JSON", "")
	}

	var missing []string
	if p.SalesToday == nil {
		missing = append(missing, "ventas_hoy")
	}
	if p.LowStockCount == nil {
		missing = append(missing, "productos_bajo_stock")
	}
	if p.AverageTicket == nil {
		missing = append(missing, "ticket_promedio")
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrMalformed,
			fmt.Sprintf("Dashboard response is missing %v", missing),
			"Check that the backend version matches this client")
	}

	kpis := &DashboardKPIs{
		SalesToday:    *p.SalesToday,
		LowStockCount: *p.LowStockCount,
		AverageTicket: *p.AverageTicket,
	}
	if p.AIAlert != nil {
		kpis.AIAlert = *p.AIAlert
	}
	return kpis, nil
}
