// Package api holds the wire types shared by every flock endpoint.
package api

import "fmt"

// Error is the body of every non-2xx response.
type Error struct {
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
	Status  int           `json:"status"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}
