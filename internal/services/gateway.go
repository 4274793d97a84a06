package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adyen/storesmoke/internal/models"
)

// Result codes returned by a PaymentGateway.
const (
	ResultAuthorised = "Authorised"
	ResultRefused    = "Refused"
	ResultCancelled  = "Cancelled"
	ResultError      = "Error"
)

// PaymentGateway authorises card payments.
type PaymentGateway interface {
	Authorise(ctx context.Context, req *AuthorisationRequest) (*AuthorisationResponse, error)
}

// Amount represents a monetary amount
type Amount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

// AuthorisationRequest asks the gateway to authorise Amount on Card.
type AuthorisationRequest struct {
	Reference string      `json:"reference"`
	Amount    Amount      `json:"amount"`
	Card      models.Card `json:"-"`
}

// AuthorisationResponse is the gateway's verdict.
type AuthorisationResponse struct {
	ResultCode    string `json:"resultCode"`
	PSPReference  string `json:"pspReference"`
	RefusalReason string `json:"refusalReason,omitempty"`
}

// TestCardGateway authorises offline using well-known test card numbers:
//
//	...0002  refused (not enough balance)
//	...0003  cancelled by the shopper
//	...0119  processing error
//
// Any other number passing the Luhn check is authorised; the rest are
// refused.
type TestCardGateway struct {
	// Latency simulates the round trip to a real processor.
	Latency time.Duration
}

func NewTestCardGateway() *TestCardGateway {
	return &TestCardGateway{}
}

func (g *TestCardGateway) Authorise(ctx context.Context, req *AuthorisationRequest) (*AuthorisationResponse, error) {
	if g.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.Latency):
		}
	}

	resp := &AuthorisationResponse{
		PSPReference: strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:16]),
	}
	switch {
	case req.Card.Last4() == "0002":
		resp.ResultCode = ResultRefused
		resp.RefusalReason = "Not enough balance"
	case req.Card.Last4() == "0003":
		resp.ResultCode = ResultCancelled
	case req.Card.Last4() == "0119":
		resp.ResultCode = ResultError
		resp.RefusalReason = "Acquirer error"
	case !req.Card.LuhnValid():
		resp.ResultCode = ResultRefused
		resp.RefusalReason = "Invalid card number"
	default:
		resp.ResultCode = ResultAuthorised
	}
	return resp, nil
}
