package model

import "fmt"

// Guest is a PMS guest profile.  Only the fields the console displays are
// decoded.
type Guest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IDNumber  string    `json:"id_number,omitempty"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt Timestamp `json:"updated_at,omitempty"`
}

func (g Guest) Fingerprint() string {
	if !g.UpdatedAt.IsZero() {
		return fmt.Sprintf("%s@%d", g.ID, g.UpdatedAt.UnixNano())
	}
	return fmt.Sprintf("%s|%s|%s|%s", g.ID, g.Name, g.Email, g.Phone)
}
