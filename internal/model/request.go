package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInput is the mutable subset of User accepted on add/update.
// Password is plaintext on the wire and hashed before it reaches the
// repository; it is never echoed back.
type UserInput struct {
	ID       int64  `json:"id,omitempty"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

type AddUserRequest struct {
	User UserInput `json:"user"`
}

type UpdateUserRequest struct {
	User UserInput `json:"user"`
}
