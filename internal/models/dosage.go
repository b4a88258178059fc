package models

import "time"

// DosageRecord is the per-user daily generation allowance.
// Resettime holds the calendar day (UTC) of the last reset.
type DosageRecord struct {
	UID       string
	Dosage    int
	Resettime string
	CreatedAt time.Time
	UpdatedAt time.Time
}
