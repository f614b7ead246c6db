package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  Outcome
		wantCode int
		wantStr  string
		wantErr  string
	}{
		{name: "clean", outcome: cleanShutdown(), wantCode: 0, wantStr: "clean_shutdown"},
		{name: "watcher failed", outcome: watcherFailed(101), wantCode: 1, wantStr: "watcher_failed(101)", wantErr: "primary watcher exited with code 101"},
		{name: "fatal", outcome: fatal(errors.New("boom")), wantCode: 1, wantStr: "fatal(boom)", wantErr: "boom"},
		{name: "fatal without cause", outcome: Outcome{Kind: Fatal}, wantCode: 1, wantStr: "fatal(<nil>)", wantErr: "dev session failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.outcome.ExitCode())
			assert.Equal(t, tt.wantStr, tt.outcome.String())
			if tt.wantErr == "" {
				assert.NoError(t, tt.outcome.AsError())
				return
			}
			require.Error(t, tt.outcome.AsError())
			assert.Equal(t, tt.wantErr, tt.outcome.AsError().Error())
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}
