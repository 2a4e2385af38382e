package handlers

import (
	"errors"
	"net/http"

	"inventory_manager/internal/repository"
	"inventory_manager/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidCredentials = "invalid credentials"
	errSignUpFailed       = "sign-up failed"
)

// Shared credentials payload for both sign-up and sign-in. Unknown fields
// such as "role" are ignored; self-service accounts get the default role.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		// optional structured logging
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "username", input.Username, "err", err)
		}
		switch {
		case errors.Is(err, repository.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": errSignUpFailed})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// signIn answers every failure, including store errors, with the same 401.
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.GenerateToken(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				h.log.Infow("auth_sign_in_failed", "username", input.Username)
			} else {
				h.log.Errorw("auth_sign_in_error", "username", input.Username, "err", err)
			}
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
