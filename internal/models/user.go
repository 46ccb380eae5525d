package models

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is one entry of the registered users collection. Password holds a
// salted hash and is stripped from every session copy.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns the copy of u that may leave the users collection.
func (u User) Public() User {
	u.Password = ""
	return u
}
