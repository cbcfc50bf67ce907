package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-erp/nexusctl/internal/errors"
)

func TestPrintSnapshot_JSON(t *testing.T) {
	srv := newBackend(t)
	rt := newTestRuntime(t, srv.URL)
	require.NoError(t, rt.guard.Establish(testToken))

	var out bytes.Buffer
	require.NoError(t, printSnapshot(context.Background(), rt, &out, true))

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			SalesToday    float64 `json:"sales_today"`
			LowStockCount int     `json:"low_stock_count"`
			AverageTicket float64 `json:"average_ticket"`
			AIAlert       string  `json:"ai_alert"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 1250.5, env.Data.SalesToday)
	assert.Equal(t, 1200, env.Data.LowStockCount)
	assert.Equal(t, 41.68, env.Data.AverageTicket)
	assert.Equal(t, "Stock bajo en Inca Kola", env.Data.AIAlert)
}

func TestPrintSnapshot_Text(t *testing.T) {
	srv := newBackend(t)
	rt := newTestRuntime(t, srv.URL)
	require.NoError(t, rt.guard.Establish(testToken))

	var out bytes.Buffer
	require.NoError(t, printSnapshot(context.Background(), rt, &out, false))

	text := out.String()
	assert.Contains(t, text, "Fetching dashboard")
	assert.Contains(t, text, "S/ 1250.50")
	assert.Contains(t, text, "1,200")
	assert.Contains(t, text, "S/ 41.68")
	assert.Contains(t, text, "AI alert: Stock bajo en Inca Kola")
}

func TestPrintSnapshot_NoSession(t *testing.T) {
	srv := newBackend(t)
	rt := newTestRuntime(t, srv.URL)

	err := printSnapshot(context.Background(), rt, &bytes.Buffer{}, true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "Not signed in")
}

func TestPrintSnapshot_RejectedTokenClearsSession(t *testing.T) {
	srv := newBackend(t)
	rt := newTestRuntime(t, srv.URL)
	require.NoError(t, rt.guard.Establish("expired"))

	err := printSnapshot(context.Background(), rt, &bytes.Buffer{}, true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))

	_, ok := rt.guard.Credential()
	assert.False(t, ok)
	stored, err := rt.store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}
