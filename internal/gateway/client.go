package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"emandate/internal/config"
	apperrors "emandate/internal/errors"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	createMandatePath  = "/mandate/create"
	mandateEnquiryPath = "/mandate/enquiry/{id}"
)

// Client talks to the e-mandate gateway over HTTPS with an API key.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(cfg config.GatewayConfig, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("X-API-KEY", cfg.APIKey).
		SetHeader("Accept", "application/json").
		// Only enquiries are safe to repeat.
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http: httpClient,
		log:  log.With().Str("component", "gateway").Logger(),
	}
}

// CreateMandate registers a mandate and returns the bank selection URL the
// customer must be redirected to.
func (c *Client) CreateMandate(ctx context.Context, req CreateMandateRequest) (*CreateMandateResponse, error) {
	var out CreateMandateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(createMandatePath)
	if err != nil {
		return nil, apperrors.Gateway(err, "create mandate request failed")
	}
	if resp.IsError() {
		return nil, c.statusError("create mandate", resp)
	}
	if out.BankDetailsURL == "" {
		return nil, apperrors.Gateway(nil, "create mandate response has no bank_details_url")
	}

	c.log.Info().
		Str("consumer_id", req.ConsumerID).
		Str("transaction_id", req.TransactionID).
		Str("mandate_id", out.MandateID).
		Msg("mandate created at gateway")
	return &out, nil
}

// MandateEnquiry fetches the current registration state of a mandate.
func (c *Client) MandateEnquiry(ctx context.Context, id string) (*EnquiryResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("mandate enquiry id is empty")
	}

	var envelope enquiryEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&envelope).
		Get(mandateEnquiryPath)
	if err != nil {
		return nil, apperrors.Gateway(err, "mandate enquiry request failed")
	}
	if resp.IsError() {
		return nil, c.statusError("mandate enquiry", resp)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil, apperrors.Gateway(nil, "mandate enquiry for %s returned no result", id)
	}

	var result EnquiryResult
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, apperrors.Gateway(err, "malformed mandate enquiry result")
	}
	result.Raw = append(json.RawMessage(nil), envelope.Result...)

	c.log.Debug().
		Str("id", id).
		Str("consumer_id", result.ConsumerID).
		Str("registration_status", result.RegistrationStatus).
		Msg("mandate enquiry")
	return &result, nil
}

func (c *Client) statusError(op string, resp *resty.Response) error {
	var body errorBody
	msg := strings.TrimSpace(resp.String())
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		if body.Message != "" {
			msg = body.Message
		} else if body.Error != "" {
			msg = body.Error
		}
	}
	c.log.Warn().Str("op", op).Int("status", resp.StatusCode()).Str("body", msg).Msg("gateway returned error")
	return apperrors.Gateway(fmt.Errorf("status %d", resp.StatusCode()), "%s failed: %s", op, msg)
}
