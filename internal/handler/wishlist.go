package handler

import (
	"bugzero-api/internal/model"

	"github.com/gofiber/fiber/v2"
)

// HandleWishlistCreate stores a capture-form entry. No authentication.
func (h *Handler) HandleWishlistCreate(c *fiber.Ctx) error {
	input := new(model.WishlistCreate)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	item, err := h.wishlist.Create(c.UserContext(), *input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}
