package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is either a client or, when Provider is set, someone clients can book.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull"`
	Provider  bool      `bun:"provider,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
