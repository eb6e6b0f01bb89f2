package pass

import (
	"fmt"
	"time"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/pkg/qrcode"
)

// Pass window bounds around the visit instant. The same window applies
// to public and official passes.
const (
	ValidBefore = 24 * time.Hour
	ValidAfter  = 6 * time.Hour
)

// IsValid reports whether an entry pass is usable: the appointment
// must be approved and now must fall within
// [visitAt-ValidBefore, visitAt+ValidAfter].
func IsValid(status model.AppointmentStatus, visitAt, now time.Time) bool {
	if status != model.StatusApproved {
		return false
	}
	return !now.Before(visitAt.Add(-ValidBefore)) && !now.After(visitAt.Add(ValidAfter))
}

// RenderPayload builds the human-readable content encoded into the
// pass image. Only masked PII ever appears here.
func RenderPayload(maskedName, maskedID, campus string, visitAt time.Time) string {
	return fmt.Sprintf("Name: %s, ID: %s, Campus: %s, Visit: %s",
		maskedName, maskedID, campus, visitAt.Format("2006-01-02 15:04"))
}

// Pass is the rendered entry pass handed to the lookup endpoint.
type Pass struct {
	Valid   bool   `json:"valid"`
	Payload string `json:"payload"`
	Image   string `json:"image"`
}

// Service renders passes. Validity decides the visual treatment, not
// the payload.
type Service struct {
	imageSize int
	now       func() time.Time
}

func NewService(imageSize int) *Service {
	if imageSize <= 0 {
		imageSize = qrcode.DefaultSize
	}
	return &Service{imageSize: imageSize, now: time.Now}
}

// ForAppointment builds the pass for an appointment using its stored
// masked fields.
func (s *Service) ForAppointment(appt *model.Appointment) (*Pass, error) {
	valid := IsValid(appt.Status, appt.VisitAt, s.now())
	payload := RenderPayload(appt.NameMasked, appt.IDCardMasked, appt.Campus, appt.VisitAt)

	image, err := qrcode.DataURI(payload, s.imageSize, valid)
	if err != nil {
		return nil, err
	}

	return &Pass{Valid: valid, Payload: payload, Image: image}, nil
}
