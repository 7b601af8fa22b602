package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sandboxBaseURL    = "https://sandbox.zarinpal.com"
	productionBaseURL = "https://payment.zarinpal.com"

	requestPath = "/pg/v4/payment/request.json"
	verifyPath  = "/pg/v4/payment/verify.json"
	startPayFmt = "%s/pg/StartPay/%s"

	requestTimeout = 10 * time.Second
)

// ZarinpalGateway talks to Zarinpal's v4 payment API. Every call has a
// bounded timeout; timeouts, non-2xx responses and malformed bodies all
// map to a failed result.
type ZarinpalGateway struct {
	merchantID string
	baseURL    string
	client     *http.Client
}

func NewZarinpalGateway(merchantID string, sandbox bool) *ZarinpalGateway {
	baseURL := productionBaseURL
	if sandbox {
		baseURL = sandboxBaseURL
	}
	return &ZarinpalGateway{
		merchantID: merchantID,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: requestTimeout},
	}
}

// NewZarinpalGatewayWithBaseURL is used by tests to point at a stub server.
func NewZarinpalGatewayWithBaseURL(merchantID, baseURL string) *ZarinpalGateway {
	return &ZarinpalGateway{
		merchantID: merchantID,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: requestTimeout},
	}
}

type requestPayload struct {
	MerchantID  string            `json:"merchant_id"`
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	CallbackURL string            `json:"callback_url"`
	Metadata    map[string]string `json:"metadata"`
	Currency    string            `json:"currency"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type apiResponse struct {
	Data struct {
		Code      int         `json:"code"`
		Authority string      `json:"authority"`
		RefID     json.Number `json:"ref_id"`
		Message   string      `json:"message"`
	} `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

func (g *ZarinpalGateway) post(ctx context.Context, path string, payload interface{}) (*apiResponse, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("malformed gateway response: %w", err)
	}
	return &apiResp, resp.StatusCode, nil
}

func (g *ZarinpalGateway) Initiate(ctx context.Context, req InitiateRequest) InitiateResult {
	description := req.Description
	if description == "" {
		description = "Payment for subscription purchase"
	}

	payload := requestPayload{
		MerchantID:  g.merchantID,
		Amount:      req.Amount,
		Description: description,
		CallbackURL: req.CallbackURL,
		Metadata: map[string]string{
			"email":  req.Email,
			"mobile": req.Mobile,
		},
		Currency: "IRR",
	}

	resp, status, err := g.post(ctx, requestPath, payload)
	if err != nil {
		return InitiateResult{Success: false, Message: fmt.Sprintf("Error connecting to the gateway server: %v", err)}
	}

	if status == http.StatusOK && resp.Data.Code == 100 && resp.Data.Authority != "" {
		return InitiateResult{
			Success:     true,
			Authority:   resp.Data.Authority,
			RedirectURL: fmt.Sprintf(startPayFmt, g.baseURL, resp.Data.Authority),
			Message:     resp.Data.Message,
		}
	}

	return InitiateResult{Success: false, Message: gatewayErrorMessage(resp)}
}

func (g *ZarinpalGateway) Verify(ctx context.Context, amount int64, authority string) VerifyResult {
	payload := verifyPayload{
		MerchantID: g.merchantID,
		Amount:     amount,
		Authority:  authority,
	}

	resp, status, err := g.post(ctx, verifyPath, payload)
	if err != nil {
		return VerifyResult{Success: false, Message: fmt.Sprintf("Error connecting to the gateway server: %v", err)}
	}

	// 100 = verified, 101 = already verified (idempotent re-confirmation)
	if status == http.StatusOK && (resp.Data.Code == 100 || resp.Data.Code == 101) {
		return VerifyResult{
			Success:   true,
			Reference: resp.Data.RefID.String(),
			Message:   resp.Data.Message,
		}
	}

	return VerifyResult{Success: false, Message: gatewayErrorMessage(resp)}
}

func gatewayErrorMessage(resp *apiResponse) string {
	if resp.Data.Message != "" {
		return resp.Data.Message
	}
	if len(resp.Errors) > 0 && string(resp.Errors) != "[]" && string(resp.Errors) != "{}" {
		return string(resp.Errors)
	}
	return "Unspecified gateway error"
}
