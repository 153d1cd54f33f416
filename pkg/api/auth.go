package api

// User is the public view of an account.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	DisplayName     string `json:"displayName"`
	PaySuffix       string `json:"paySuffix,omitempty"`
	MessengerLinked bool   `json:"messengerLinked"`
	CreatedAt       int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest replaces the set fields. Nil fields are left unchanged;
// an empty string clears the value.
type UpdateProfileRequest struct {
	DisplayName    *string `json:"displayName,omitempty"`
	PaySuffix      *string `json:"paySuffix,omitempty"`
	MessengerToken *string `json:"messengerToken,omitempty"`
}

type UpdateProfileResponse struct {
	User *User `json:"user"`
}
