package sqlite

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic/internal/model"
)

type seedPatient struct {
	name     string
	age      int
	phone    string
	category string
	notes    string
}

var seedPatients = []seedPatient{
	{"Gon Freecss", 12, "+1234567890", "Enhancement", "Young hunter with great potential"},
	{"Killua Zoldyck", 12, "+1234567891", "Transmutation", "Assassin with electrical nen"},
	{"Kurapika Kurta", 19, "+1234567892", "Conjuration", "Chain user seeking revenge"},
	{"Leorio Paradinight", 19, "+1234567893", "Enhancement", "Medical student and hunter"},
}

// SeedIfEmpty inserts the demonstration data set when the patients table is empty.
// Appointment dates are relative to now's calendar day. It reports whether rows
// were inserted.
func (s *Store) SeedIfEmpty(ctx context.Context, now time.Time) (seeded bool, err error) {
	err = s.withTx(ctx, func(tx *Store) error {
		n, err := tx.Patients().Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		stamp := now.UTC()
		ids := make([]int64, 0, len(seedPatients))
		for _, sp := range seedPatients {
			category := sp.category
			p := &model.Patient{
				Base:         model.Base{CreatedAt: stamp, UpdatedAt: stamp},
				FullName:     sp.name,
				Age:          sp.age,
				PhoneNumber:  sp.phone,
				Category:     &category,
				MedicalNotes: sp.notes,
			}
			if err := tx.Patients().Create(ctx, p); err != nil {
				return err
			}
			ids = append(ids, p.ID)
		}

		tomorrow := now.AddDate(0, 0, 1).Format(model.DateLayout)
		dayAfter := now.AddDate(0, 0, 2).Format(model.DateLayout)
		appointments := []*model.Appointment{
			{PatientID: ids[0], Date: tomorrow, Time: "10:00", Notes: "Regular checkup"},
			{PatientID: ids[1], Date: tomorrow, Time: "14:00", Notes: "Follow-up treatment"},
			{PatientID: ids[2], Date: dayAfter, Time: "11:00", Notes: "Initial consultation"},
		}
		for _, a := range appointments {
			a.Status = model.AppointmentStatusScheduled
			a.CreatedAt, a.UpdatedAt = stamp, stamp
			if err := tx.Appointments().Create(ctx, a); err != nil {
				return err
			}
		}

		followUp := tomorrow
		treatment := &model.Treatment{
			Base:          model.Base{CreatedAt: stamp, UpdatedAt: stamp},
			AppointmentID: appointments[0].ID,
			PatientID:     ids[0],
			Description:   "General health checkup",
			Prescriptions: "Vitamin supplements",
			Cost:          model.NewCost(50.00),
			FollowUpDate:  &followUp,
		}
		if err := tx.Treatments().Create(ctx, treatment); err != nil {
			return err
		}

		seeded = true
		return nil
	})
	return seeded, err
}
