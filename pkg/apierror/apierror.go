package apierror

import "fmt"

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: status}
}
