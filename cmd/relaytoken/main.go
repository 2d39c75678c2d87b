// 中継ジャーナル参照用の運用者トークンを発行するコマンド。
//
// 使い方:
//
//	relaytoken -subject ops-alice -ttl 1h
//
// 秘密鍵は -secret または環境変数 ADMIN_JWT_SECRET で指定する。
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nao1215/payrelay/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".envの読み込みに失敗: %v", err)
	}

	secret := flag.String("secret", os.Getenv("ADMIN_JWT_SECRET"), "JWT署名用の秘密鍵")
	subject := flag.String("subject", "operator", "トークンの発行対象（運用者名）")
	ttl := flag.Duration("ttl", 24*time.Hour, "トークンの有効期間")
	flag.Parse()

	token, err := middleware.GenerateJWT(*secret, *subject, *ttl)
	if err != nil {
		log.Fatalf("トークンの発行に失敗: %v", err)
	}
	fmt.Println(token)
}
