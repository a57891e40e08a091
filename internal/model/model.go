package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Role is the closed set of user roles known to the service.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a string onto one of the known roles. Unknown strings are
// rejected rather than silently falling back to a default role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User identifies the caller of an operation. Authentication happens at the
// HTTP boundary; by the time a User reaches the store it is trusted.
type User struct {
	Id   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Interests is a list of free-form interest tags, stored as a JSON array in a
// single database column.
type Interests []string

// Value implements driver.Valuer so that an Interests slice can be bound to
// an SQL parameter.
func (i Interests) Value() (driver.Value, error) {
	if i == nil {
		return nil, nil
	}
	return json.Marshal(i)
}

// Scan implements sql.Scanner for reading the JSON column back.
func (i *Interests) Scan(src interface{}) error {
	if src == nil {
		*i = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Interests", src)
	}
	return json.Unmarshal(data, i)
}

// Contact is the data structure for an address-book entry. All fields with
// the exception of the Id, Active and UserId fields are optional. UserId is
// the owning user; it is assigned at creation time and never changes.
type Contact struct {
	Id        int64      `json:"id"                  db:"id"`
	FirstName *string    `json:"firstname,omitempty" db:"firstname"`
	LastName  *string    `json:"lastname,omitempty"  db:"lastname"`
	Email     *string    `json:"email,omitempty"     db:"email"`
	Phone     *string    `json:"phone,omitempty"     db:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"  db:"birthday"`
	Address   *string    `json:"address,omitempty"   db:"address"`
	Notes     *string    `json:"notes,omitempty"     db:"notes"`
	Interests Interests  `json:"interests,omitempty" db:"interests"`
	Active    bool       `json:"active"              db:"active"`
	UserId    int64      `json:"user_id"             db:"user_id"`
}
