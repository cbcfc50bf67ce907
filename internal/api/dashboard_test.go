package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboardServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DashboardPath, r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDashboard_Success(t *testing.T) {
	srv := dashboardServer(t, http.StatusOK,
		`{"ventas_hoy": 120.5, "productos_bajo_stock": 3, "ticket_promedio": 15.25}`)
	c := newTestClient(t, srv.URL, 0)

	kpis, err := c.Dashboard(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, &DashboardKPIs{SalesToday: 120.5, LowStockCount: 3, AverageTicket: 15.25}, kpis)
}

func TestDashboard_WithAlert(t *testing.T) {
	srv := dashboardServer(t, http.StatusOK,
		`{"ventas_hoy": 0, "productos_bajo_stock": 7, "ticket_promedio": 0, "alerta_ia": "Riesgo de quiebre de stock"}`)
	c := newTestClient(t, srv.URL, 0)

	kpis, err := c.Dashboard(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Riesgo de quiebre de stock", kpis.AIAlert)
	assert.Equal(t, 0.0, kpis.SalesToday, "zero is a value, not a missing field")
}

func TestDashboard_NullAlert(t *testing.T) {
	srv := dashboardServer(t, http.StatusOK,
		`{"ventas_hoy": 1, "productos_bajo_stock": 0, "ticket_promedio": 1, "alerta_ia": null}`)
	c := newTestClient(t, srv.URL, 0)

	kpis, err := c.Dashboard(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Empty(t, kpis.AIAlert)
}

func TestDashboard_Classification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantErr  *StatusError
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"No se pudieron validar las credenciales"}`, errors.ErrUnauthorized, nil},
		{"route missing", http.StatusNotFound, `{"detail":"Not Found"}`, errors.ErrRouteMissing, nil},
		{"server error with detail", http.StatusInternalServerError, `{"detail":"db down"}`, errors.ErrServer, &StatusError{Status: 500, Detail: "db down"}},
		{"server error no body", http.StatusBadGateway, ``, errors.ErrServer, &StatusError{Status: 502}},
		{"forbidden", http.StatusForbidden, `{"detail":"Se requiere cuenta de empleado"}`, errors.ErrServer, &StatusError{Status: 403, Detail: "Se requiere cuenta de empleado"}},
		{"missing field", http.StatusOK, `{"ventas_hoy": 1, "ticket_promedio": 2}`, errors.ErrMalformed, nil},
		{"null field", http.StatusOK, `{"ventas_hoy": null, "productos_bajo_stock": 1, "ticket_promedio": 2}`, errors.ErrMalformed, nil},
		{"not json", http.StatusOK, `<html></html>`, errors.ErrMalformed, nil},
		{"wrong type", http.StatusOK, `{"ventas_hoy": "mucho", "productos_bajo_stock": 1, "ticket_promedio": 2}`, errors.ErrMalformed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := dashboardServer(t, tt.status, tt.body)
			c := newTestClient(t, srv.URL, 0)

			kpis, err := c.Dashboard(context.Background(), "tok-1")
			require.Error(t, err)
			assert.Nil(t, kpis)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))

			if tt.wantErr != nil {
				var se *StatusError
				require.True(t, stderrors.As(err, &se))
				assert.Equal(t, tt.wantErr, se)
			}
		})
	}
}

func TestDecodeDashboard_ReportsAllMissingFields(t *testing.T) {
	_, err := decodeDashboard([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ventas_hoy")
	assert.Contains(t, err.Error(), "productos_bajo_stock")
	assert.Contains(t, err.Error(), "ticket_promedio")
}
