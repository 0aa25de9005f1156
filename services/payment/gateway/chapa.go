package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// ChapaGW adapts the Chapa payment API to the uniform gateway contract.
// Every call carries a bounded timeout and is never retried here; the
// sweeper owns retry policy.
type ChapaGW struct {
	apiURL     string
	secretKey  string
	httpClient *http.Client
}

// NewChapaGW creates a new Chapa gateway adapter
func NewChapaGW(cfg models.ChapaConfig) *ChapaGW {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ChapaGW{
		apiURL:    cfg.APIURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// chapaEnvelope is the common shape of Chapa API responses
type chapaEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chapaInitiateData struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

type chapaVerifyData struct {
	Status string `json:"status"`
}

// Initiate starts a hosted checkout for the given transaction reference
func (g *ChapaGW) Initiate(ctx context.Context, req models.InitiateRequest) (*models.InitiateResult, error) {
	payload := map[string]string{
		"amount":       req.Amount.StringFixed(2),
		"currency":     req.Currency,
		"email":        req.Email,
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"phone_number": req.PhoneNumber,
		"tx_ref":       req.TransactionReference,
		"callback_url": req.CallbackURL,
		"return_url":   req.ReturnURL,
	}

	body, raw, err := g.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	if body.Status != "success" {
		return nil, apperrors.Newf(apperrors.KindGatewayRejected, "payment initiation rejected: %s", body.Message)
	}

	var data chapaInitiateData
	if err := json.Unmarshal(body.Data, &data); err != nil || data.CheckoutURL == "" {
		return nil, apperrors.New(apperrors.KindGatewayUnexpected, "gateway response missing checkout URL")
	}

	return &models.InitiateResult{
		CheckoutURL:      data.CheckoutURL,
		GatewayReference: data.TxRef,
		RawPayload:       raw,
	}, nil
}

// Verify fetches the authoritative state of a transaction reference.
// Absent or unrecognized status fields come back as GatewayStatusUnknown
// rather than an error.
func (g *ChapaGW) Verify(ctx context.Context, txRef string) (*models.VerifyResult, error) {
	body, raw, err := g.get(ctx, "/transaction/verify/"+txRef)
	if err != nil {
		return nil, err
	}

	if body.Status != "success" {
		return nil, apperrors.Newf(apperrors.KindGatewayRejected, "payment verification rejected: %s", body.Message)
	}

	status := models.GatewayStatusUnknown
	var data chapaVerifyData
	if err := json.Unmarshal(body.Data, &data); err == nil && data.Status != "" {
		status = models.NormalizeGatewayStatus(data.Status)
	}

	return &models.VerifyResult{
		Status:     status,
		RawPayload: raw,
	}, nil
}

func (g *ChapaGW) post(ctx context.Context, path string, payload interface{}) (*chapaEnvelope, json.RawMessage, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindGatewayUnexpected, "failed to encode gateway request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindGatewayUnexpected, "failed to build gateway request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return g.do(httpReq)
}

func (g *ChapaGW) get(ctx context.Context, path string) (*chapaEnvelope, json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+path, nil)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindGatewayUnexpected, "failed to build gateway request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	return g.do(httpReq)
}

// do executes the request and decodes the response envelope. Transport
// failures, unparseable bodies and non-2xx responses without a
// well-formed envelope all surface as network-kind errors so the sweep
// retries them; a parseable envelope on an error status is a rejection.
func (g *ChapaGW) do(req *http.Request) (*chapaEnvelope, json.RawMessage, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindGatewayNetwork, "gateway request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindGatewayNetwork, "failed to read gateway response", err)
	}

	var envelope chapaEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.Warn("Malformed gateway response",
			logger.Int("status_code", resp.StatusCode),
			logger.String("url", req.URL.Path))
		return nil, nil, apperrors.Wrap(apperrors.KindGatewayNetwork,
			fmt.Sprintf("malformed gateway response (HTTP %d)", resp.StatusCode), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if envelope.Message != "" {
			return nil, nil, apperrors.Newf(apperrors.KindGatewayRejected, "gateway rejected request: %s", envelope.Message)
		}
		return nil, nil, apperrors.Newf(apperrors.KindGatewayNetwork, "gateway returned HTTP %d", resp.StatusCode)
	}

	return &envelope, json.RawMessage(raw), nil
}
