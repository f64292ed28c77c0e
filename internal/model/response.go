package model

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type UsersResponse struct {
	Users []User `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
