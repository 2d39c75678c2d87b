// Package httpclient は外部決済ゲートウェイへのHTTP中継クライアントを提供する。
//
// 受け取ったリクエストボディを加工せずに固定URLへ1回だけPOSTし、
// ゲートウェイの応答（4xx/5xxを含む）をそのまま Result として返す。
// 応答を得られなかった場合（接続失敗、タイムアウト、TLSエラー）は
// RelayError を返す。リトライは行わない。
package httpclient
