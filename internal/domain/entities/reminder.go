package entities

import "time"

// Reminder is a scheduled doctor checkup.
type Reminder struct {
	ID          string     `json:"id" db:"id"`
	DoctorName  string     `json:"doctorName" db:"doctor_name"`
	CheckupDate time.Time  `json:"checkupDate" db:"checkup_date"`
	Notes       string     `json:"notes" db:"notes"`
	NotifiedAt  *time.Time `json:"notifiedAt,omitempty" db:"notified_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// DaysUntil returns the number of calendar days from now to the checkup.
// Both dates are compared in now's location so a checkup later today is 0.
func (r *Reminder) DaysUntil(now time.Time) int {
	loc := now.Location()
	y1, m1, d1 := now.Date()
	y2, m2, d2 := r.CheckupDate.In(loc).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// IsUpcoming reports whether the checkup is today or later.
func (r *Reminder) IsUpcoming(now time.Time) bool {
	return r.DaysUntil(now) >= 0
}

// ReminderInput carries the user-editable reminder fields.
type ReminderInput struct {
	DoctorName  string `json:"doctorName"`
	CheckupDate string `json:"checkupDate"`
	Notes       string `json:"notes"`
}

// ReminderSplit groups reminders by whether the checkup has passed.
type ReminderSplit struct {
	Upcoming []*Reminder `json:"upcoming"`
	Past     []*Reminder `json:"past"`
}
