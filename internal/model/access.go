package model

// AccessRecord is one logged access event: who fetched which material.
// Rows are append-only; the material name is stored as submitted and is not
// checked against the current listing.
type AccessRecord struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Material string `json:"material"`
}
