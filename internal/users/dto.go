package users

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

// UserDTO is the transport shape of a staff member.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email     string
	FirstName string
	LastName  string
	IsActive  *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
	}
}

// ToModel converts the DTO into a persistence model.
func (dto CreateUserDTO) ToModel() *models.User {
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	return &models.User{
		Email:     strings.ToLower(strings.TrimSpace(dto.Email)),
		FirstName: strings.TrimSpace(dto.FirstName),
		LastName:  strings.TrimSpace(dto.LastName),
		IsActive:  active,
	}
}
