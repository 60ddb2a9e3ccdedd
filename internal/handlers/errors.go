package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conduit/internal/apperr"
	"conduit/internal/auth"
)

const errInternal = "internal server error"

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated, apperr.KindCorruptCredential:
		return http.StatusUnauthorized
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindIdentityStoreUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindInvalidInput:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": reason}. Only the client-safe reason is
// ever written; internal causes are logged.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, body := h.renderError(c, err)
	c.JSON(status, body)
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, body := h.renderError(c, err)
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) renderError(c *gin.Context, err error) (int, errorResponse) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	reason := apperr.ReasonOf(err)

	switch {
	case status == http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Token")
	case kind == apperr.KindIdentityStoreUnavailable:
		// Already logged where it happened.
	case status >= http.StatusInternalServerError:
		h.log.LogErr("http_request_failed", err, "method", c.Request.Method, "route", c.FullPath())
		reason = errInternal
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	if kind == apperr.KindCorruptCredential {
		reason = auth.ReasonInvalidCreds
	}
	return status, errorResponse{Error: reason}
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("http_bad_request_body", "route", c.FullPath(), "err", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
