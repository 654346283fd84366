package models

import "gorm.io/gorm"

// DefaultReportReason is stored when a user reports without giving a reason.
const DefaultReportReason = "No reason given."

// Report is an append-only complaint record. It is immutable once created and
// has no relation to session or waiting-pool lifecycle: the reported partner
// may already be gone by the time the report lands.
type Report struct {
	gorm.Model

	// ReporterID is the identity that filed the report.
	ReporterID string `gorm:"type:text;not null;index"`
	// Reason is the free-form complaint text.
	Reason string `gorm:"type:text;not null"`
}
