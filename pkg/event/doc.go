// Package event は中継ジャーナルに記録するイベントの型定義を提供する。
//
// 中継リクエスト1件につき1イベントを生成する。イベントは監査用であり、
// 呼び出し元に返すレスポンスには影響しない。
package event
