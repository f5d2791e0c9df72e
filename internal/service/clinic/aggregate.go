package clinic

import (
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

// AppointmentsByDate filters the appointment projection by exact date.
func (s *Service) AppointmentsByDate(date string) []*model.Appointment {
	out := []*model.Appointment{}
	for _, a := range s.Appointments() {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// DailyRevenue sums the cost of treatments booked on date. Costs that are not
// numbers count as zero.
func (s *Service) DailyRevenue(date string) float64 {
	var total float64
	for _, t := range s.Treatments() {
		if t.EffectiveDate() == date {
			total += t.Cost.Float()
		}
	}
	return total
}

func (s *Service) TotalRevenue() float64 {
	var total float64
	for _, t := range s.Treatments() {
		total += t.Cost.Float()
	}
	return total
}

func (s *Service) Revenue(date string) model.Revenue {
	return model.Revenue{
		Date:  date,
		Daily: s.DailyRevenue(date),
		Total: s.TotalRevenue(),
	}
}

// ExportPatients renders the patient projection as indented JSON.
func (s *Service) ExportPatients() ([]byte, error) {
	data, err := json.MarshalIndent(s.Patients(), "", "  ")
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to export patients: %w", err))
	}
	return data, nil
}

// PatientDetail assembles a patient with its appointments and treatments from the
// projections.
func (s *Service) PatientDetail(id int64) (*model.PatientDetail, error) {
	var patient *model.Patient
	for _, p := range s.Patients() {
		if p.ID == id {
			patient = p
			break
		}
	}
	if patient == nil {
		return nil, apperrors.NotFound("patient", fmt.Errorf("id %d", id))
	}

	detail := &model.PatientDetail{
		Patient:      *patient,
		Appointments: []model.Appointment{},
		Treatments:   []model.Treatment{},
	}
	for _, a := range s.Appointments() {
		if a.PatientID == id {
			detail.Appointments = append(detail.Appointments, *a)
		}
	}
	for _, t := range s.Treatments() {
		if t.PatientID == id {
			detail.Treatments = append(detail.Treatments, *t)
		}
	}
	return detail, nil
}
