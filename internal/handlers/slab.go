package handlers

import (
	"strconv"

	apperrors "emandate/internal/errors"
	"emandate/internal/services/slab"
	"emandate/internal/utils"
	"emandate/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SlabHandler is the dashboard surface over the slab store. Merchant scoped
// routes are guarded by middleware; slab id routes check ownership here.
type SlabHandler struct {
	slabs slab.Service
}

func NewSlabHandler(slabs slab.Service) *SlabHandler {
	return &SlabHandler{slabs: slabs}
}

func (h *SlabHandler) List(c *fiber.Ctx) error {
	merchantID, err := uintParam(c, "merchantId")
	if err != nil {
		return response.DomainError(c, err)
	}
	slabs, err := h.slabs.ListSlabs(c.UserContext(), merchantID)
	if err != nil {
		return response.DomainError(c, err)
	}
	page := utils.GetPagination(c, 1, 50)
	return response.Success(c, "Slabs retrieved successfully", utils.PaginatedResponse{
		Data:       utils.Paginate(slabs, &page),
		Pagination: page,
	})
}

func (h *SlabHandler) Create(c *fiber.Ctx) error {
	merchantID, err := uintParam(c, "merchantId")
	if err != nil {
		return response.DomainError(c, err)
	}
	var input slab.CreateSlabInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	created, err := h.slabs.CreateSlab(c.UserContext(), merchantID, input)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, "Slab created successfully", created)
}

func (h *SlabHandler) Applicable(c *fiber.Ctx) error {
	merchantID, err := uintParam(c, "merchantId")
	if err != nil {
		return response.DomainError(c, err)
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return response.BadRequest(c, "amount must be a number")
	}
	found, err := h.slabs.FindApplicableSlab(c.UserContext(), merchantID, amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Applicable slab found", found)
}

func (h *SlabHandler) Update(c *fiber.Ctx) error {
	slabID, ok, err := h.authorizeSlab(c)
	if !ok {
		return err
	}
	var input slab.UpdateSlabInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	updated, err := h.slabs.UpdateSlab(c.UserContext(), slabID, input)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Slab updated successfully", updated)
}

func (h *SlabHandler) Delete(c *fiber.Ctx) error {
	slabID, ok, err := h.authorizeSlab(c)
	if !ok {
		return err
	}
	if err := h.slabs.DeleteSlab(c.UserContext(), slabID); err != nil {
		return response.DomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// authorizeSlab resolves :slabId and checks the caller may manage its
// merchant. When ok is false the response has been written and err is the
// result of writing it.
func (h *SlabHandler) authorizeSlab(c *fiber.Ctx) (slabID uint, ok bool, err error) {
	slabID, err = uintParam(c, "slabId")
	if err != nil {
		return 0, false, response.DomainError(c, err)
	}
	claims, err := utils.GetDashboardClaims(c)
	if err != nil {
		return 0, false, response.Unauthorized(c, "unauthorized")
	}
	existing, err := h.slabs.GetSlab(c.UserContext(), slabID)
	if err != nil {
		return 0, false, response.DomainError(c, err)
	}
	if !claims.CanManageMerchant(existing.MerchantID) {
		return 0, false, response.Forbidden(c)
	}
	return slabID, true, nil
}

func uintParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("%s must be a positive integer", name)
	}
	return uint(id), nil
}
