package handler

import (
	"go-inventory-sales/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	service service.AccessService
}

func NewAuthHandler(s service.AccessService) *AuthHandler {
	return &AuthHandler{service: s}
}

type googleSignInRequest struct {
	Token string `json:"token"`
}

// GoogleSignIn exchanges a Google access token for a session token.
func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	var req googleSignInRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}

	resp, err := h.service.SignIn(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
