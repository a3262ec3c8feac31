package handler

import (
	"go-inventory-sales/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	service service.AccessService
}

func NewAdminHandler(s service.AccessService) *AdminHandler {
	return &AdminHandler{service: s}
}

func (h *AdminHandler) GetPendingUsers(c *fiber.Ctx) error {
	users, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *AdminHandler) DecideUser(c *fiber.Ctx) error {
	var req service.DecisionRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}

	user, err := h.service.Decide(c.UserContext(), &req)
	if err != nil {
		return err
	}

	if user == nil {
		return c.JSON(fiber.Map{"message": "User rejected", "email": req.Email})
	}
	return c.JSON(fiber.Map{"message": "User approved", "data": user})
}
