package handlers

import (
	"github.com/fatflowers/listing-payment/internal/app/service/health"
	"github.com/fatflowers/listing-payment/internal/app/service/reconciliation"
	"github.com/fatflowers/listing-payment/internal/app/service/statistics"
	"github.com/fatflowers/listing-payment/internal/app/service/webhook_handler"
	"github.com/fatflowers/listing-payment/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespError is the envelope of every non-2xx response. Data carries the
// error text for client errors.
type RespError struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    *string                  `json:"data"`
}

type RespInitiatePayment struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    InitiatePaymentResponse  `json:"data"`
}

type RespPaymentStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    PaymentStatusResponse    `json:"data"`
}

type RespWebhookAck struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    WebhookAck               `json:"data"`
}

type RespWebhookResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    webhook_handler.Result   `json:"data"`
}

type RespHealth struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    health.Result            `json:"data"`
}

type RespListPayments struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListPaymentsResponse     `json:"data"`
}

type RespSweep struct {
	Code    response.APIResponseCode   `json:"code"`
	Message string                     `json:"message"`
	Data    reconciliation.SweepResult `json:"data"`
}

type RespStatistics struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statistics.Response      `json:"data"`
}

type RespSummary struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statistics.Summary       `json:"data"`
}
