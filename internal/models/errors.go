package models

import "strconv"

// ErrorObject is a JSON:API error object
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse is a JSON:API error document
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// NewErrorResponse builds a single-error document
func NewErrorResponse(status int, title, detail string) ErrorResponse {
	return ErrorResponse{Errors: []ErrorObject{{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}}}
}
