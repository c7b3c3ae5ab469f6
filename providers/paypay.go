package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PayPayProvider implements PaymentProvider against the PayPay QR code API.
type PayPayProvider struct {
	apiKey     string
	apiSecret  string
	merchantID string
	baseURL    string
	httpClient *http.Client
}

func NewPayPayProvider(apiKey, apiSecret, merchantID, baseURL string) *PayPayProvider {
	return &PayPayProvider{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		merchantID: merchantID,
		baseURL:    baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ---- PayPay API request/response structs ----

type paypayAmount struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

type paypayQRCodeRequest struct {
	MerchantPaymentID string       `json:"merchantPaymentId"`
	Amount            paypayAmount `json:"amount"`
	CodeType          string       `json:"codeType"`
	OrderDescription  string       `json:"orderDescription,omitempty"`
	IsAuthorization   bool         `json:"isAuthorization"`
	RedirectURL       string       `json:"redirectUrl,omitempty"`
	RedirectType      string       `json:"redirectType,omitempty"`
}

type paypayResultInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	CodeID  string `json:"codeId"`
}

type paypayQRCodeData struct {
	CodeID string `json:"codeId"`
	URL    string `json:"url"`
}

type paypayQRCodeResponse struct {
	ResultInfo paypayResultInfo `json:"resultInfo"`
	Data       paypayQRCodeData `json:"data"`
}

// CreateQRCode creates a provider-side payment intent and returns the QR URL
// the buyer opens to pay.
func (p *PayPayProvider) CreateQRCode(ctx context.Context, req CreateQRCodeRequest) (*QRCodeResponse, error) {
	payload := paypayQRCodeRequest{
		MerchantPaymentID: req.MerchantPaymentID,
		Amount:            paypayAmount{Amount: req.Amount, Currency: req.Currency},
		CodeType:          "ORDER_QR",
		OrderDescription:  req.OrderDescription,
		IsAuthorization:   false,
		RedirectURL:       req.RedirectURL,
		RedirectType:      "WEB_LINK",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR code request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/codes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("X-ASSUME-MERCHANT", p.merchantID)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Code: "REQUEST_FAILED", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Code: "READ_FAILED", Message: err.Error()}
	}

	var qr paypayQRCodeResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return nil, &ProviderError{Code: "BAD_RESPONSE", Message: fmt.Sprintf("status %d: unparseable body", resp.StatusCode)}
	}

	if qr.ResultInfo.Code != "SUCCESS" {
		return nil, &ProviderError{Code: qr.ResultInfo.Code, Message: qr.ResultInfo.Message}
	}
	if qr.Data.CodeID == "" || qr.Data.URL == "" {
		return nil, &ProviderError{Code: "INCOMPLETE_DATA", Message: "provider response missing codeId or url"}
	}

	return &QRCodeResponse{PaymentID: qr.Data.CodeID, URL: qr.Data.URL}, nil
}
