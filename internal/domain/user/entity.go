package user

// User represents a user entity in the system.
type User struct {
	ID        int64  // ID is assigned by the store; zero means not yet persisted
	FirstName string // FirstName is the given name of the user
	LastName  string // LastName is the family name of the user
	Age       int    // Age of the user in years
	Email     string // Email address, not unique and not format-checked
	Password  string // Password is accepted on write and never serialized on read
}

// PublicUser is the read view of a User. It deliberately has no password field.
type PublicUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
}

// Public builds the serializable view of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Email:     u.Email,
	}
}

// PublicList maps users to their public views, preserving order.
func PublicList(users []User) []PublicUser {
	views := make([]PublicUser, len(users))
	for i, u := range users {
		views[i] = u.Public()
	}
	return views
}
