// 決済中継サービスのエントリポイント。
// クライアントアプリからの決済開始リクエストを外部決済ゲートウェイへ中継する。
package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/nao1215/payrelay/internal/relay"
)

func main() {
	// .envが無い場合は環境変数のみを使う
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".envの読み込みに失敗: %v", err)
	}

	cfg, err := relay.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := relay.NewServer(cfg)
	if err != nil {
		log.Fatalf("中継サーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	if server.InsecureSkipVerify() {
		log.Printf("[WARN] ゲートウェイのTLS証明書検証が無効です (APP_ENV=%s)。ステージング環境以外では使用しないでください", cfg.Environment)
	}
	if cfg.JournalPath == "" {
		log.Printf("中継ジャーナルは無効です")
	}

	log.Printf("決済中継サービスを起動します: :%s", cfg.Port)
	log.Printf("中継エンドポイント: POST %s -> %s", cfg.PaymentPath(), server.GatewayURL())
	if err := server.Run(); err != nil {
		log.Fatalf("決済中継サービスの起動に失敗: %v", err)
	}
}
