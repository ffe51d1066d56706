package models

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	Address   string
}
