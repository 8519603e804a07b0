package model

import (
	"bytes"
	"encoding/json"
)

// Role is a user's platform role. Older API responses embed the role as
// an object with a name; newer ones send the name directly.
type Role string

// Well-known roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// UnmarshalJSON implements json.Unmarshaler.
func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = Role(obj.Name)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Role(s)
	return nil
}

// User is a platform account.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
	IsActive  *bool  `json:"isActive,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both "id" and the database's "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID ID `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Active reports whether the account is active. Accounts without an
// explicit status are treated as active.
func (u User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// Status returns "active" or "inactive".
func (u User) Status() string {
	if u.Active() {
		return "active"
	}
	return "inactive"
}
