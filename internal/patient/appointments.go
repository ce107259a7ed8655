package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prontuario/patients/internal/repo"
)

type SpecialistView struct {
	ID        string `json:"id"`
	Name      string `json:"nome"`
	Specialty string `json:"especialidade,omitempty"`
}

type AppointmentView struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"data"`
	Reminder   bool            `json:"lembrete"`
	Reminders  []string        `json:"lembretes"`
	Specialist *SpecialistView `json:"especialista"`
}

func toAppointmentView(a repo.Appointment) AppointmentView {
	v := AppointmentView{
		ID:        a.ID.String(),
		Date:      a.Date,
		Reminder:  a.Reminder,
		Reminders: []string(a.Reminders),
	}
	if v.Reminders == nil {
		v.Reminders = []string{}
	}
	if a.Specialist != nil {
		v.Specialist = &SpecialistView{ID: a.Specialist.ID.String(), Name: a.Specialist.FullName, Specialty: a.Specialist.Specialty}
	} else if a.SpecialistID != nil {
		v.Specialist = &SpecialistView{ID: a.SpecialistID.String()}
	}
	return v
}

// ListAppointments returns the patient's appointments ordered by date.
func (s *Service) ListAppointments(ctx context.Context, patientID uuid.UUID) ([]AppointmentView, error) {
	if _, err := s.patient(ctx, s.repo, patientID); err != nil {
		return nil, err
	}
	list, err := s.repo.AppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, persistence("list appointments", err)
	}
	out := make([]AppointmentView, len(list))
	for i := range list {
		out[i] = toAppointmentView(list[i])
	}
	return out, nil
}
