package pass

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusware/gatepass/internal/model"
)

func TestIsValid(t *testing.T) {
	visit := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status model.AppointmentStatus
		now    time.Time
		want   bool
	}{
		{"before window opens", model.StatusApproved, visit.Add(-25 * time.Hour), false},
		{"window just opened", model.StatusApproved, visit.Add(-23 * time.Hour), true},
		{"at lower bound", model.StatusApproved, visit.Add(-ValidBefore), true},
		{"at visit time", model.StatusApproved, visit, true},
		{"before window closes", model.StatusApproved, visit.Add(5 * time.Hour), true},
		{"at upper bound", model.StatusApproved, visit.Add(ValidAfter), true},
		{"after window closes", model.StatusApproved, visit.Add(7 * time.Hour), false},
		{"pending in window", model.StatusPending, visit, false},
		{"rejected in window", model.StatusRejected, visit, false},
		{"completed in window", model.StatusCompleted, visit, false},
		{"cancelled in window", model.StatusCancelled, visit, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.status, visit, tt.now))
		})
	}
}

func TestRenderPayload(t *testing.T) {
	visit := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	payload := RenderPayload("Z*******n", "110***********8888", "East", visit)
	assert.Equal(t, "Name: Z*******n, ID: 110***********8888, Campus: East, Visit: 2024-05-10 14:30", payload)
}

func TestForAppointment(t *testing.T) {
	visit := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	appt := &model.Appointment{
		Status:       model.StatusApproved,
		Campus:       "East",
		VisitAt:      visit,
		NameMasked:   "Z*******n",
		IDCardMasked: "110***********8888",
	}

	svc := NewService(0)
	svc.now = func() time.Time { return visit.Add(-time.Hour) }

	p, err := svc.ForAppointment(appt)
	require.NoError(t, err)
	assert.True(t, p.Valid)
	assert.Contains(t, p.Payload, "Z*******n")
	assert.True(t, strings.HasPrefix(p.Image, "data:image/png;base64,"))

	// The same appointment outside the window renders an invalid pass
	// with the identical payload.
	svc.now = func() time.Time { return visit.Add(48 * time.Hour) }
	expired, err := svc.ForAppointment(appt)
	require.NoError(t, err)
	assert.False(t, expired.Valid)
	assert.Equal(t, p.Payload, expired.Payload)
	assert.NotEqual(t, p.Image, expired.Image)
}
