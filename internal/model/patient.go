package model

import "strings"

type Patient struct {
	Base
	FullName     string  `db:"full_name" json:"full_name"`
	Age          int     `db:"age" json:"age"`
	PhoneNumber  string  `db:"phone_number" json:"phone_number"`
	Category     *string `db:"category" json:"category"`
	MedicalNotes string  `db:"medical_notes" json:"medical_notes"`
}

// PatientInput is the create and update form for a patient. Every mutable field is
// rewritten on update.
type PatientInput struct {
	FullName     string  `json:"full_name" validate:"notblank,max=200"`
	Age          *int    `json:"age" validate:"required,gte=0,lte=150"`
	PhoneNumber  string  `json:"phone_number" validate:"required,phone,max=32"`
	Category     *string `json:"category" validate:"omitempty,max=100"`
	MedicalNotes string  `json:"medical_notes"`
}

// Normalize trims the free text fields and turns an empty category into NULL.
func (in *PatientInput) Normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			in.Category = nil
		} else {
			in.Category = &c
		}
	}
}

// PatientDetail is a patient with everything it owns.
type PatientDetail struct {
	Patient      Patient       `json:"patient"`
	Appointments []Appointment `json:"appointments"`
	Treatments   []Treatment   `json:"treatments"`
}
