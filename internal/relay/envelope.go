package relay

import (
	"encoding/json"
	"net/http"

	"github.com/nao1215/payrelay/pkg/httpclient"
)

// 呼び出し元に返す固定メッセージ。
const (
	messageProcessed   = "Payment processed successfully"
	messageFailed      = "Payment processing failed"
	messageMissingKeys = "Missing required fields: merchantId and merchantRequest"
	messageInvalidJSON = "Request body must be valid JSON"
	messageTooLarge    = "Request body too large"
)

// Envelope は呼び出し元に返す統一レスポンス形式。
// Success は中継が完了したかを表し、ゲートウェイが決済を受理したかではない。
type Envelope struct {
	// Success は中継が完了した場合にtrue。
	Success bool `json:"success"`
	// Status はゲートウェイのHTTPステータス、または中継側のエラーステータス。
	Status int `json:"status"`
	// Data はゲートウェイのレスポンスボディ。無い場合はnull。
	Data any `json:"data"`
	// Message は成功時のメッセージ。
	Message string `json:"message,omitempty"`
	// Error は失敗時のメッセージ。
	Error string `json:"error,omitempty"`
	// Code は失敗種別（例: NETWORK_ERROR）。
	Code string `json:"code,omitempty"`
	// RequestID はリクエストの識別子。
	RequestID string `json:"requestId,omitempty"`
}

// successEnvelope はゲートウェイ応答をエンベロープに変換する。
// ゲートウェイが4xx/5xxを返した場合も success は true になる。
func successEnvelope(result *httpclient.Result, requestID string) Envelope {
	return Envelope{
		Success:   true,
		Status:    result.Status,
		Data:      gatewayData(result.Data),
		Message:   messageProcessed,
		RequestID: requestID,
	}
}

// relayFailureEnvelope はゲートウェイから応答を得られなかった場合のエンベロープを生成する。
func relayFailureEnvelope(err *httpclient.RelayError, requestID string) Envelope {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := err.Message
	if msg == "" {
		msg = messageFailed
	}
	return Envelope{
		Success:   false,
		Status:    status,
		Data:      err.Data,
		Error:     msg,
		Code:      err.Code,
		RequestID: requestID,
	}
}

// failureEnvelope は中継前のエラーや予期しないエラーのエンベロープを生成する。
func failureEnvelope(status int, msg, requestID string) Envelope {
	if msg == "" {
		msg = messageFailed
	}
	return Envelope{
		Success:   false,
		Status:    status,
		Data:      nil,
		Error:     msg,
		RequestID: requestID,
	}
}

// gatewayData はゲートウェイのレスポンスボディをエンベロープのdataに変換する。
// JSONはそのまま埋め込み、JSON以外は文字列として埋め込む。空のボディはnullになる。
func gatewayData(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
