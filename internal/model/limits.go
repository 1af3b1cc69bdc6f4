package model

// Column widths of the operational schema. Request validation and the
// memory store reject longer values.
const (
	MaxPhoneLen      = 20
	MaxBrandRepIDLen = 64
)
