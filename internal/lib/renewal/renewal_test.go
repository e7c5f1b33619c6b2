package renewal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravtsov/subtrack/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeRenewalDate(t *testing.T) {
	tests := []struct {
		name      string
		startDate time.Time
		frequency string
		want      time.Time
		wantErr   bool
	}{
		{
			name:      "monthly adds one calendar month",
			startDate: date(2024, time.January, 1),
			frequency: models.FrequencyMonthly,
			want:      date(2024, time.February, 1),
		},
		{
			name:      "yearly adds one calendar year",
			startDate: date(2024, time.January, 1),
			frequency: models.FrequencyYearly,
			want:      date(2025, time.January, 1),
		},
		{
			name:      "monthly from jan 31 normalizes past february",
			startDate: date(2024, time.January, 31),
			frequency: models.FrequencyMonthly,
			want:      date(2024, time.March, 2),
		},
		{
			name:      "yearly from feb 29 normalizes",
			startDate: date(2024, time.February, 29),
			frequency: models.FrequencyYearly,
			want:      date(2025, time.March, 1),
		},
		{
			name:      "unknown frequency",
			startDate: date(2024, time.January, 1),
			frequency: "weekly",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeRenewalDate(tt.startDate, tt.frequency)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition(t *testing.T) {
	now := date(2024, time.June, 15)

	tests := []struct {
		name        string
		current     string
		requested   string
		renewalDate time.Time
		want        string
	}{
		{
			name:        "default to active",
			current:     "",
			requested:   "",
			renewalDate: date(2024, time.July, 1),
			want:        models.StatusActive,
		},
		{
			name:        "requested status kept while renewal in future",
			current:     models.StatusActive,
			requested:   models.StatusInactive,
			renewalDate: date(2024, time.July, 1),
			want:        models.StatusInactive,
		},
		{
			name:        "past renewal forces expired",
			current:     models.StatusActive,
			requested:   models.StatusActive,
			renewalDate: date(2024, time.June, 1),
			want:        models.StatusExpired,
		},
		{
			name:        "past renewal overrides inactive too",
			current:     models.StatusInactive,
			requested:   models.StatusInactive,
			renewalDate: date(2024, time.June, 1),
			want:        models.StatusExpired,
		},
		{
			name:        "cancelled is terminal even with past renewal",
			current:     models.StatusCancelled,
			requested:   models.StatusActive,
			renewalDate: date(2024, time.June, 1),
			want:        models.StatusCancelled,
		},
		{
			name:        "requesting cancelled sticks",
			current:     models.StatusActive,
			requested:   models.StatusCancelled,
			renewalDate: date(2024, time.July, 1),
			want:        models.StatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.current, tt.requested, tt.renewalDate, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	now := date(2024, time.June, 15)

	tests := []struct {
		name        string
		startDate   time.Time
		renewalDate time.Time
		wantErr     bool
	}{
		{
			name:        "valid dates",
			startDate:   date(2024, time.June, 1),
			renewalDate: date(2024, time.July, 1),
			wantErr:     false,
		},
		{
			name:        "start date in the future",
			startDate:   date(2024, time.July, 1),
			renewalDate: date(2024, time.August, 1),
			wantErr:     true,
		},
		{
			name:        "renewal equal to start",
			startDate:   date(2024, time.June, 1),
			renewalDate: date(2024, time.June, 1),
			wantErr:     true,
		},
		{
			name:        "renewal before start",
			startDate:   date(2024, time.June, 1),
			renewalDate: date(2024, time.May, 1),
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.startDate, tt.renewalDate, now)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
