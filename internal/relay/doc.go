// Package relay は決済リクエスト中継サービスの内部実装を提供する。
//
// クライアントアプリから受け取った決済開始リクエストの必須フィールド
// （merchantId, merchantRequest）の有無だけを検証し、ボディを加工せずに
// 外部決済ゲートウェイへ転送する。ゲートウェイの応答や通信エラーは
// 統一されたエンベロープ形式に変換して呼び出し元に返す。
//
// エンベロープの success は「中継が完了したか」を表し、決済が受理されたか
// ではない。呼び出し元は status と data を見て決済結果を判断する必要がある。
package relay
