package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine status codes carried in the response envelope alongside the HTTP
// status. Clients branch on these rather than on HTTP codes.
const (
	StatusSuccess            = "1000"
	StatusFailure            = "1001"
	StatusRetry              = "1002"
	StatusInvalidAccessToken = "1003"
	StatusExpiredAccessToken = "1004"
)

const poweredBy = "twitteroAuth"

// redactedMessage replaces internal error text outside development builds.
const redactedMessage = "Something wrong happened."

// Envelope is the uniform response shape for every operation, success or
// failure.
type Envelope struct {
	StatusCode string `json:"statusCode"`
	Message    string `json:"message"`
	URL        string `json:"url"`
	Details    string `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func requestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.RequestURI
}

func write(c *gin.Context, httpStatus int, env Envelope) {
	c.Header("X-Powered-By", poweredBy)
	env.URL = requestURL(c)
	c.JSON(httpStatus, env)
}

// Success writes a 200 envelope carrying data.
func Success(c *gin.Context, message string, data any) {
	write(c, http.StatusOK, Envelope{StatusCode: StatusSuccess, Message: message, Data: data})
}

// Created writes a 201 envelope carrying data.
func Created(c *gin.Context, message string, data any) {
	write(c, http.StatusCreated, Envelope{StatusCode: StatusSuccess, Message: message, Data: data})
}

// Handle maps err's taxonomy kind to its wire response. Unknown kinds (or
// errors carrying no kind at all) become internal errors; their message is
// redacted to a generic string outside development builds so internal
// exception text never leaks.
func Handle(c *gin.Context, err error, environment string) {
	e := AsError(err)
	if e == nil {
		message := err.Error()
		if environment == "production" {
			message = redactedMessage
		}
		write(c, http.StatusInternalServerError, Envelope{StatusCode: StatusFailure, Message: message})
		return
	}

	switch e.Kind {
	case KindTokenExpired:
		// the client is expected to exchange its refresh token next
		c.Header("Instruction", "Refresh Token")
		write(c, http.StatusUnauthorized, Envelope{StatusCode: StatusExpiredAccessToken, Message: e.Message, Details: e.Details})
	case KindBadToken, KindAccessToken:
		write(c, http.StatusUnauthorized, Envelope{StatusCode: StatusInvalidAccessToken, Message: e.Message, Details: e.Details})
	case KindUnauthorized:
		write(c, http.StatusUnauthorized, Envelope{StatusCode: StatusFailure, Message: e.Message, Details: e.Details})
	case KindNotFound, KindNoEntry, KindNoData:
		write(c, http.StatusNotFound, Envelope{StatusCode: StatusFailure, Message: e.Message, Details: e.Details})
	case KindBadRequest:
		write(c, http.StatusBadRequest, Envelope{StatusCode: StatusFailure, Message: e.Message, Details: e.Details})
	case KindForbidden:
		write(c, http.StatusForbidden, Envelope{StatusCode: StatusFailure, Message: e.Message, Details: e.Details})
	case KindInternal:
		message := e.Message
		if environment == "production" {
			message = redactedMessage
		}
		write(c, http.StatusInternalServerError, Envelope{StatusCode: StatusFailure, Message: message})
	default:
		message := e.Message
		if environment == "production" {
			message = redactedMessage
		}
		write(c, http.StatusInternalServerError, Envelope{StatusCode: StatusFailure, Message: message})
	}
}
