package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"astrascore/internal/scoreboard"
	"astrascore/internal/store"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scoreboard.ErrNotFound):
		return http.StatusNotFound
	case scoreboard.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, scoreboard.ErrConflict), errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON answer for a failed request. Internal errors are not
// echoed to the client.
func errorBody(err error) (int, gin.H) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return status, gin.H{"error": "internal error"}
	}
	body := gin.H{"error": err.Error()}
	var v *scoreboard.ValidationError
	if errors.As(err, &v) {
		body["field"] = v.Field
	}
	return status, body
}

// fail attaches err to the request for the logger and writes the error answer.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := errorBody(err)
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(400, gin.H{"error": "bad request"})
}
