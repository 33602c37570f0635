package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCmd  string
		wantRest []string
		wantErr  string
	}{
		{name: "up", args: []string{"up"}, wantCmd: "up", wantRest: []string{}},
		{name: "status", args: []string{"status"}, wantCmd: "status", wantRest: []string{}},
		{name: "create", args: []string{"create", "add_regions"}, wantCmd: "create", wantRest: []string{"add_regions"}},
		{name: "no args", args: nil, wantErr: "usage"},
		{name: "create without name", args: []string{"create"}, wantErr: "requires a migration name"},
		{name: "create with blank name", args: []string{"create", " "}, wantErr: "requires a migration name"},
		{name: "unknown", args: []string{"redo"}, wantErr: `unknown command "redo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest, err := parseCommand(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestGooseLogger_Printf(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := gooseLogger{log: zap.New(core)}

	l.Printf("OK   %s (%s)\n", "00001_initial_schema.sql", "12ms")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "OK   00001_initial_schema.sql (12ms)", logs.All()[0].Message)
}
