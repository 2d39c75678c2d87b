package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// 必須フィールド名。
const (
	fieldMerchantID      = "merchantId"
	fieldMerchantRequest = "merchantRequest"
)

// errTrailingData はJSON値の後ろに余分なデータがあることを表す。
var errTrailingData = errors.New("JSON値の後ろに余分なデータがあります")

// InboundPaymentRequest はクライアントから受け取った決済開始リクエスト。
// merchantId と merchantRequest 以外のフィールドも保持し、そのまま転送する。
type InboundPaymentRequest map[string]any

// MerchantID はログやジャーナル用に加盟店IDを文字列で返す。
func (r InboundPaymentRequest) MerchantID() string {
	v, ok := r[fieldMerchantID]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// HasMerchantRequest は暗号化済みペイロードが存在するかを返す。
func (r InboundPaymentRequest) HasMerchantRequest() bool {
	return !isFalsy(r[fieldMerchantRequest])
}

// ValidationError は受信リクエストの検証エラー。HTTP 400として返す。
type ValidationError struct {
	// Message は呼び出し元に返すメッセージ。
	Message string
	// err は原因となったエラー。
	err error
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

// Unwrap は原因となったエラーを返す。
func (e *ValidationError) Unwrap() error {
	return e.err
}

// parseInboundRequest はリクエストボディをデコードし、必須フィールドの有無を検証する。
// フィールドの型や内容は検証しない。数値はfloat64の範囲外でも受け付けるようjson.Numberで保持する。
func parseInboundRequest(body []byte) (InboundPaymentRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ValidationError{Message: messageInvalidJSON, err: err}
	}
	// 1つのJSON値の後ろに余分なデータがあるボディは不正とする
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Message: messageInvalidJSON, err: errTrailingData}
	}

	// オブジェクト以外のJSONは必須フィールドが無いものとして扱う
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Message: messageMissingKeys}
	}

	req := InboundPaymentRequest(obj)
	if isFalsy(req[fieldMerchantID]) || isFalsy(req[fieldMerchantRequest]) {
		return req, &ValidationError{Message: messageMissingKeys}
	}
	return req, nil
}

// isFalsy はJSON値が未設定または偽とみなされる値かを返す。
// null、false、空文字列、0 を偽とする。オブジェクトと配列は空でも真。
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case float64:
		return x == 0 || math.IsNaN(x)
	case json.Number:
		// 1e400のような範囲外の値はエラーになるが、0ではないので真とする
		f, err := x.Float64()
		return err == nil && f == 0
	}
	return false
}
