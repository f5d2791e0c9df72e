package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cost is a treatment price as read back from storage. The cost column is not
// strictly typed, so a row may hold text or NULL; such values scan as invalid.
type Cost struct {
	Amount float64
	Valid  bool
}

func NewCost(amount float64) Cost {
	return Cost{Amount: amount, Valid: true}
}

// Float returns the amount, or 0 for an invalid cost.
func (c Cost) Float() float64 {
	if !c.Valid {
		return 0
	}
	return c.Amount
}

func (c *Cost) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = Cost{}
	case float64:
		c.set(v)
	case int64:
		c.set(float64(v))
	case []byte:
		c.parse(string(v))
	case string:
		c.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Cost", src)
	}
	return nil
}

func (c Cost) Value() (driver.Value, error) {
	if !c.Valid {
		return nil, nil
	}
	return c.Amount, nil
}

func (c Cost) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Amount)
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = Cost{}
		return nil
	}
	c.parse(strings.Trim(s, `"`))
	return nil
}

func (c *Cost) set(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		*c = Cost{}
		return
	}
	*c = Cost{Amount: v, Valid: true}
}

func (c *Cost) parse(s string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*c = Cost{}
		return
	}
	c.set(v)
}

type Treatment struct {
	Base
	AppointmentID int64   `db:"appointment_id" json:"appointment_id"`
	PatientID     int64   `db:"patient_id" json:"patient_id"`
	Description   string  `db:"description" json:"description"`
	Prescriptions string  `db:"prescriptions" json:"prescriptions"`
	Cost          Cost    `db:"cost" json:"cost"`
	FollowUpDate  *string `db:"follow_up_date" json:"follow_up_date"`

	// Joined from patients and appointments on read.
	PatientName     string `db:"patient_name" json:"patient_name"`
	AppointmentDate string `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string `db:"appointment_time" json:"appointment_time"`
}

// EffectiveDate is the day a treatment's revenue is booked on: its appointment's
// date, or the UTC day it was created when that is unknown.
func (t Treatment) EffectiveDate() string {
	if t.AppointmentDate != "" {
		return t.AppointmentDate
	}
	return t.CreatedAt.UTC().Format(DateLayout)
}

type TreatmentInput struct {
	AppointmentID int64    `json:"appointment_id" validate:"required,gt=0"`
	PatientID     int64    `json:"patient_id" validate:"required,gt=0"`
	Description   string   `json:"description" validate:"notblank,max=2000"`
	Prescriptions string   `json:"prescriptions" validate:"max=2000"`
	Cost          *float64 `json:"cost" validate:"omitempty,gte=0"`
	FollowUpDate  *string  `json:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
}

// Normalize trims text fields and drops an empty follow-up date.
func (in *TreatmentInput) Normalize() {
	in.Description = strings.TrimSpace(in.Description)
	if in.FollowUpDate != nil && strings.TrimSpace(*in.FollowUpDate) == "" {
		in.FollowUpDate = nil
	}
}

// CostValue is the cost to store; a missing cost is 0.
func (in TreatmentInput) CostValue() Cost {
	if in.Cost == nil {
		return NewCost(0)
	}
	return NewCost(*in.Cost)
}

// Revenue is the revenue report for one day plus the running total.
type Revenue struct {
	Date  string  `json:"date"`
	Daily float64 `json:"daily"`
	Total float64 `json:"total"`
}
