package domain

import "time"

// User es el dueño anonimo de un diario; el email es opcional y sirve para recuperar la cuenta.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email,omitempty"`
	IsPro     bool       `json:"is_pro"`
	ProUntil  *time.Time `json:"pro_until,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Codigo pendiente para abrir esta cuenta desde otra sesion.
	OtpCodeHash  string     `json:"-"`
	OtpExpiresAt *time.Time `json:"-"`
}

// HasActivePro indica si el periodo PRO sigue vigente en now.
func (u User) HasActivePro(now time.Time) bool {
	return u.ProUntil != nil && u.ProUntil.After(now)
}

// ActivatePro extiende un periodo vigente o abre uno nuevo desde now.
func (u *User) ActivatePro(days int, now time.Time) {
	if days <= 0 {
		days = 365
	}
	extension := time.Duration(days) * 24 * time.Hour
	if u.HasActivePro(now) {
		until := u.ProUntil.Add(extension)
		u.ProUntil = &until
	} else {
		until := now.Add(extension)
		u.ProUntil = &until
	}
	u.IsPro = true
}
