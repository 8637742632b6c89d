package domain

import (
	"strings"
	"time"
)

// Client is a firm client. Readable by every role; createdBy is provenance only.
type Client struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Ref returns the populated projection used inside cases.
func (c *Client) Ref() *ClientRef {
	if c == nil {
		return nil
	}
	return &ClientRef{ID: c.ID, Name: c.Name, Email: c.Email}
}

type ClientRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

type CreateClientRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=1000"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

func (r *CreateClientRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = trimPtr(r.Email)
	r.Phone = trimPtr(r.Phone)
	return validate.Struct(r)
}

type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=1000"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

func (r *UpdateClientRequest) Validate() error {
	r.Name = trimPtr(r.Name)
	r.Email = trimPtr(r.Email)
	r.Phone = trimPtr(r.Phone)
	return validate.Struct(r)
}

// ListClientsParams filters the client directory. Search matches name.
type ListClientsParams struct {
	Search *string
	Limit  int
}

func (p *ListClientsParams) Normalize() {
	if p.Search != nil {
		q := strings.TrimSpace(*p.Search)
		if q == "" {
			p.Search = nil
		} else {
			p.Search = &q
		}
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
}
