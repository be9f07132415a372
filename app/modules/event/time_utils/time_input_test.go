package eventtime

import (
	"testing"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseStart(t *testing.T) {
	// Friday 2026-10-16 10:00 UTC.
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	p := NewParser(time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", "2026-10-17T21:00:00Z", time.Date(2026, 10, 17, 21, 0, 0, 0, time.UTC), false},
		{"date and time", "2026-10-20 19:30", time.Date(2026, 10, 20, 19, 30, 0, 0, time.UTC), false},
		{"past fixed layout", "2026-10-15 19:30", time.Time{}, true},
		{"empty", "   ", time.Time{}, true},
		{"gibberish", "whenever you like", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseStart(tt.input, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eventdomain.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestParser_FreeTextIsInFuture(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	got, err := NewParser(nil).ParseStart("tomorrow at 9pm", now)
	require.NoError(t, err)
	assert.True(t, got.After(now))
	assert.Equal(t, 17, got.Day())
}
