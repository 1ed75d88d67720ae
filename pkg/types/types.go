// Package types holds the JISC domain model shared by the service layer.
package types

import (
	"time"
)

// Role identifies what a signed-in user is allowed to see and change.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAthletic Role = "athletic"
	RoleAthlete  Role = "athlete"
)

// Profile is the user record kept by the auth backend.
type Profile struct {
	ID        string    `firestore:"id" json:"id"`
	Name      string    `firestore:"name" json:"name"`
	Email     string    `firestore:"email" json:"email"`
	Phone     string    `firestore:"phone" json:"phone"`
	Role      Role      `firestore:"role" json:"role"`
	CreatedAt time.Time `firestore:"created_at" json:"createdAt"`
}

// Sport is a championship modality athletes can enroll in.
type Sport struct {
	ID   string `firestore:"id" json:"id"`
	Name string `firestore:"name" json:"name"`
}

// Athletic is a university athletic association competing in the championship.
type Athletic struct {
	ID         string `firestore:"id" json:"id"`
	Name       string `firestore:"name" json:"name"`
	University string `firestore:"university" json:"university"`
	// PixKey receives package payments for this athletic.
	PixKey string `firestore:"pix_key" json:"pixKey"`
}

// Package is a purchasable ticket/games bundle.
type Package struct {
	ID          string `firestore:"id" json:"id"`
	Name        string `firestore:"name" json:"name"`
	Description string `firestore:"description" json:"description"`
	PriceCents  int64  `firestore:"price_cents" json:"priceCents"`
}

// Athlete is the registration aggregate: the user profile plus the athletic,
// enrolled sports and purchased packages joined in.
type Athlete struct {
	ID            string        `firestore:"id" json:"id"`
	UserID        string        `firestore:"user_id" json:"userId"`
	User          Profile       `firestore:"user" json:"user"`
	AthleticID    string        `firestore:"athletic_id" json:"athleticId"`
	Athletic      Athletic      `firestore:"athletic" json:"athletic"`
	Status        AthleteStatus `firestore:"status" json:"status"`
	Sports        []Sport       `firestore:"sports" json:"sports"`
	Packages      []Package     `firestore:"packages" json:"packages"`
	WhatsAppSent  bool          `firestore:"whatsapp_sent" json:"whatsappSent"`
	AdminApproved bool          `firestore:"admin_approved" json:"adminApproved"`
	CreatedAt     time.Time     `firestore:"created_at" json:"createdAt"`
}

// HasSport reports whether the athlete is enrolled in the given sport.
func (a *Athlete) HasSport(sportID string) bool {
	for _, s := range a.Sports {
		if s.ID == sportID {
			return true
		}
	}
	return false
}

// AthleteFilters narrows an athlete list query. Empty or "all" values are
// no-ops; WhatsAppSent is tri-state (nil means "any").
type AthleteFilters struct {
	SearchTerm   string `json:"searchTerm,omitempty"`
	AthleticID   string `json:"athleticId,omitempty"`
	Status       string `json:"status,omitempty"`
	SportID      string `json:"sportId,omitempty"`
	WhatsAppSent *bool  `json:"whatsappSent,omitempty"`
}

// AuthContext carries the authenticated caller's identity into service calls.
// Services derive authorization scope from this value, never from filters
// supplied alongside it.
type AuthContext struct {
	UserID     string
	Role       Role
	AthleticID string
}

// IsAdmin reports whether the caller holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// StaticData aggregates the slow-changing lookup lists fetched together at
// app start.
type StaticData struct {
	Sports    []Sport    `json:"sports"`
	Athletics []Athletic `json:"athletics"`
	Packages  []Package  `json:"packages"`
}
