package models

import (
	"time"

	"github.com/google/uuid"
)

// Account roles.
const (
	RoleCustomer = "customer"
	RoleBusiness = "business"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
