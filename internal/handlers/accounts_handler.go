package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/validation"
)

const (
	msgRegisteredConfirmed = "User registered and confirmed successfully."
	msgRegisteredPending   = "User registered successfully. Please check your email to confirm your account."
)

func (h *handler) signup(c *gin.Context) {
	var req validation.SignupRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	res, err := h.cfg.Accounts.SignUp(c.Request.Context(), strings.TrimSpace(req.Email), req.Password, req.Name)
	if err != nil {
		h.writeError(c, err, "An unexpected error occurred. Please try again later.")
		return
	}

	msg := msgRegisteredPending
	if res.UserConfirmed {
		msg = msgRegisteredConfirmed
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":       msg,
		"userConfirmed": res.UserConfirmed,
		"userSub":       res.UserSub,
	})
}

func (h *handler) login(c *gin.Context) {
	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	tokens, err := h.cfg.Accounts.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.writeError(c, err, "An unexpected error occurred.")
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *handler) confirm(c *gin.Context) {
	var req validation.ConfirmRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	res, err := h.cfg.Accounts.Confirm(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Code))
	if err != nil {
		h.writeError(c, err, "An unexpected error occurred.")
		return
	}
	c.JSON(http.StatusOK, res)
}
