package httpclient

import "net/http"

// CodeNetworkError はゲートウェイから応答を得られなかったことを示すエラーコード。
const CodeNetworkError = "NETWORK_ERROR"

// RelayError はゲートウェイからHTTP応答を得られなかった中継失敗を表す。
type RelayError struct {
	// Status は呼び出し元に返すステータス。常に500。
	Status int
	// Message は下位のトランスポートエラーのメッセージ。
	Message string
	// Code はエラー種別。
	Code string
	// Data は付随データ。現状は常にnil。
	Data any
	// err は原因となったエラー。
	err error
}

// newNetworkError はトランスポートエラーからRelayErrorを生成する。
func newNetworkError(err error) *RelayError {
	msg := "Payment API request failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &RelayError{
		Status:  http.StatusInternalServerError,
		Message: msg,
		Code:    CodeNetworkError,
		err:     err,
	}
}

// Error はerrorインターフェースを実装する。
func (e *RelayError) Error() string {
	return e.Code + ": " + e.Message
}

// Unwrap は原因となったエラーを返す。
func (e *RelayError) Unwrap() error {
	return e.err
}
