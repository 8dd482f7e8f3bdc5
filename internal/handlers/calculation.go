package handlers

import (
	"context"
	"strconv"
	"strings"

	"emandate/internal/codec"
	apperrors "emandate/internal/errors"
	"emandate/internal/services/calculator"
	"emandate/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Codecs interface {
	Encode(v codec.Version, payload *codec.Payload) (string, error)
	Decode(v codec.Version, wire string) (*codec.Payload, error)
}

type Quoter interface {
	Quote(ctx context.Context, merchantID uint, amount decimal.Decimal) (calculator.MandateTerms, error)
}

// CodecFailureRecorder counts rejected payloads by scheme and error kind.
type CodecFailureRecorder interface {
	RecordCodecFailure(scheme, kind string)
}

// CalculationHandler serves the external quote API over the authenticated codec.
type CalculationHandler struct {
	codecs  Codecs
	quotes  Quoter
	metrics CodecFailureRecorder
	log     zerolog.Logger
}

func NewCalculationHandler(codecs Codecs, quotes Quoter, metrics CodecFailureRecorder, log zerolog.Logger) *CalculationHandler {
	return &CalculationHandler{
		codecs:  codecs,
		quotes:  quotes,
		metrics: metrics,
		log:     log.With().Str("component", "calculation_api").Logger(),
	}
}

func (h *CalculationHandler) Calculate(c *fiber.Ctx) error {
	payload, err := h.codecs.Decode(codec.VersionAuthenticated, c.Query("encReq"))
	if err != nil {
		h.codecFailure(err)
		return response.DomainError(c, err)
	}

	merchantID, err := strconv.ParseUint(strings.TrimSpace(payload.Get("merchant_id")), 10, 64)
	if err != nil || merchantID == 0 {
		return response.DomainError(c, apperrors.Validation("merchant_id must be a positive integer"))
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(payload.Get("payment_amount")))
	if err != nil {
		return response.DomainError(c, apperrors.Validation("payment_amount must be a number"))
	}

	terms, err := h.quotes.Quote(c.UserContext(), uint(merchantID), amount)
	if err != nil {
		h.log.Warn().Err(err).Uint64("merchant_id", merchantID).Str("amount", amount.String()).Msg("quote rejected")
		return response.DomainError(c, err)
	}

	encrypted, err := h.codecs.Encode(codec.VersionAuthenticated, terms.ToPayload())
	if err != nil {
		h.log.Error().Err(err).Msg("encrypt quote response")
		return response.DomainError(c, err)
	}
	return c.JSON(fiber.Map{"encryptedResponse": encrypted})
}

func (h *CalculationHandler) codecFailure(err error) {
	kind := string(apperrors.KindOf(err))
	if kind == "" {
		kind = "unknown"
	}
	h.metrics.RecordCodecFailure(string(codec.VersionAuthenticated), kind)
}
