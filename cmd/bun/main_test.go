package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationName(t *testing.T) {
	tests := []struct {
		name    string
		words   []string
		want    string
		wantErr bool
	}{
		{name: "words", words: []string{"add", "calendar", "index"}, want: "add_calendar_index"},
		{name: "quoted phrase", words: []string{"Add Notification  Role"}, want: "add_notification_role"},
		{name: "empty", words: nil, wantErr: true},
		{name: "blank", words: []string{"  "}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := migrationName(tt.words)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"init", "migrate", "rollback", "status", "create_sql"}, names)

	require.Len(t, app.Flags, 1)
	assert.Equal(t, []string{"config"}, app.Flags[0].Names())
}

func TestNewApp_HelpNeedsNoDatabase(t *testing.T) {
	app := newApp()
	app.Writer = &discard{}
	assert.NoError(t, app.Run([]string{"bun", "--config", "/does/not/exist.yaml", "help"}))
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
