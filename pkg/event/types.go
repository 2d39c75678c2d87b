package event

import (
	"encoding/json"
	"time"
)

// Type は中継ジャーナルに記録するイベントの種類を表す。
type Type string

const (
	// TypeRelayRejected は必須フィールド不足等でリクエストを中継せずに拒否したことを表す。
	TypeRelayRejected Type = "RelayRejected"
	// TypeRelayCompleted はゲートウェイからHTTP応答を受信したことを表す。
	// ゲートウェイが4xx/5xxを返した場合もこの種類になる。
	TypeRelayCompleted Type = "RelayCompleted"
	// TypeRelayFailed はゲートウェイから応答を得られなかったことを表す。
	TypeRelayFailed Type = "RelayFailed"
)

// Valid はイベント種類が既知のものかを返す。
func (t Type) Valid() bool {
	switch t {
	case TypeRelayRejected, TypeRelayCompleted, TypeRelayFailed:
		return true
	}
	return false
}

// Event は1回の中継リクエストの結果を表す不変のレコード。
// 暗号化済みペイロード（merchantRequest）は含めない。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// RequestID は受信リクエストの識別子（X-Request-ID）。
	RequestID string `json:"request_id"`
	// MerchantID はリクエスト元の加盟店ID。拒否時は空の場合がある。
	MerchantID string `json:"merchant_id"`
	// GatewayName は中継先ゲートウェイの名前。
	GatewayName string `json:"gateway_name"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// RelayRejectedData はRelayRejectedイベントのデータ。
type RelayRejectedData struct {
	// Reason は拒否の理由。
	Reason string `json:"reason"`
}

// RelayCompletedData はRelayCompletedイベントのデータ。
type RelayCompletedData struct {
	// GatewayStatus はゲートウェイが返したHTTPステータスコード。
	GatewayStatus int `json:"gateway_status"`
	// ContentType はゲートウェイ応答のContent-Type。
	ContentType string `json:"content_type,omitempty"`
	// ResponseBytes はゲートウェイ応答ボディのサイズ（バイト）。
	ResponseBytes int `json:"response_bytes"`
	// RequestBytes は転送したリクエストボディのサイズ（バイト）。
	RequestBytes int `json:"request_bytes"`
	// DurationMillis はゲートウェイ呼び出しの所要時間（ミリ秒）。
	DurationMillis int64 `json:"duration_ms"`
	// ReadError は応答ボディの読み取りに失敗した場合のメッセージ。
	ReadError string `json:"read_error,omitempty"`
}

// RelayFailedData はRelayFailedイベントのデータ。
type RelayFailedData struct {
	// Code はエラー種別（例: NETWORK_ERROR）。
	Code string `json:"code"`
	// Message は下位エラーのメッセージ。
	Message string `json:"message"`
	// RequestBytes は転送しようとしたリクエストボディのサイズ（バイト）。
	RequestBytes int `json:"request_bytes"`
	// DurationMillis は失敗までの所要時間（ミリ秒）。
	DurationMillis int64 `json:"duration_ms"`
}
