package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-erp/nexusctl/internal/dashboard"
	"github.com/nexus-erp/nexusctl/internal/errors"
)

// scriptedRunner returns the given outcomes in order, one per dashboard run.
type scriptedRunner struct {
	outcomes []dashboard.Outcome
	err      error
	calls    int
}

func (s *scriptedRunner) run(ctx context.Context, opts dashboard.Options) (dashboard.Outcome, error) {
	s.calls++
	if s.err != nil {
		return dashboard.Outcome{}, s.err
	}
	out := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return out, nil
}

func TestRunDashboard(t *testing.T) {
	tests := []struct {
		name      string
		outcome   dashboard.Outcome
		wantCode  string
		wantInErr string
		wantOut   string
	}{
		{
			name:    "operator quit",
			outcome: dashboard.Outcome{},
		},
		{
			name:    "logout",
			outcome: dashboard.Outcome{Redirected: true, Reason: "logout"},
			wantOut: "Signed out",
		},
		{
			name:      "no session",
			outcome:   dashboard.Outcome{Redirected: true, Reason: "no active session"},
			wantCode:  errors.ErrUnauthorized,
			wantInErr: "Not signed in",
		},
		{
			name:      "session expired",
			outcome:   dashboard.Outcome{Redirected: true, Reason: "session expired"},
			wantCode:  errors.ErrUnauthorized,
			wantInErr: "Session ended: session expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime(t, "http://127.0.0.1:1")
			runner := &scriptedRunner{outcomes: []dashboard.Outcome{tt.outcome}}
			var out bytes.Buffer

			err := runDashboard(context.Background(), rt, &out, false, runner.run)

			assert.Equal(t, 1, runner.calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.wantCode))
				assert.Contains(t, err.Error(), tt.wantInErr)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func TestRunDashboard_CancelledContextEndsQuietly(t *testing.T) {
	rt := newTestRuntime(t, "http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &scriptedRunner{outcomes: []dashboard.Outcome{{Redirected: true, Reason: "session expired"}}}
	err := runDashboard(ctx, rt, &bytes.Buffer{}, true, runner.run)

	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
}

func TestRunDashboard_ProgramError(t *testing.T) {
	rt := newTestRuntime(t, "http://127.0.0.1:1")
	boom := stderrors.New("terminal gone")

	runner := &scriptedRunner{err: boom}
	err := runDashboard(context.Background(), rt, &bytes.Buffer{}, false, runner.run)

	assert.ErrorIs(t, err, boom)
}

func TestRunDashboard_PassesGuardAndEngineFactory(t *testing.T) {
	rt := newTestRuntime(t, "http://127.0.0.1:1")

	var got dashboard.Options
	run := func(ctx context.Context, opts dashboard.Options) (dashboard.Outcome, error) {
		got = opts
		return dashboard.Outcome{}, nil
	}
	require.NoError(t, runDashboard(context.Background(), rt, &bytes.Buffer{}, false, run))

	assert.Same(t, rt.guard, got.Guard)
	require.NotNil(t, got.NewEngine)
	assert.NotNil(t, got.NewEngine(nil))
}
