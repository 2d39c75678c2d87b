package relay

import (
	"strings"
	"testing"
	"time"
)

// envMap はテスト用の環境変数マップからgetenv関数を生成する。
func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

// TestLoadConfigFrom はLoadConfigFrom関数を検証する。
func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	t.Run("環境変数が無い場合にデフォルト値が使われること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFrom(envMap(nil))
		if err != nil {
			t.Fatalf("LoadConfigFrom()でエラーが発生: %v", err)
		}
		if cfg.Port != "3001" {
			t.Errorf("Port = %q, want %q", cfg.Port, "3001")
		}
		if cfg.GatewayName != "yagoutpay" {
			t.Errorf("GatewayName = %q, want %q", cfg.GatewayName, "yagoutpay")
		}
		if !strings.HasPrefix(cfg.GatewayURL, "https://uatcheckout.yagoutpay.com/") {
			t.Errorf("GatewayURL = %q", cfg.GatewayURL)
		}
		if cfg.GatewayTimeout != 30*time.Second {
			t.Errorf("GatewayTimeout = %v, want 30s", cfg.GatewayTimeout)
		}
		if cfg.InsecureSkipVerify {
			t.Error("InsecureSkipVerifyはデフォルトでfalseであるべき")
		}
		if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
			t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
		}
		if cfg.JournalPath != "payrelay.db" {
			t.Errorf("JournalPath = %q, want %q", cfg.JournalPath, "payrelay.db")
		}
		if cfg.AdminJWTSecret != "" {
			t.Errorf("AdminJWTSecret = %q, want empty", cfg.AdminJWTSecret)
		}
		if cfg.PaymentPath() != "/api/payment/yagoutpay" {
			t.Errorf("PaymentPath() = %q", cfg.PaymentPath())
		}
	})

	t.Run("環境変数で各値を上書きできること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFrom(envMap(map[string]string{
			"PORT":                         "8080",
			"APP_ENV":                      "staging",
			"GATEWAY_NAME":                 "acme",
			"GATEWAY_URL":                  "https://pay.acme.test/api",
			"GATEWAY_TIMEOUT":              "5s",
			"GATEWAY_INSECURE_SKIP_VERIFY": "true",
			"CORS_ALLOWED_ORIGINS":         "http://a.test, http://b.test,",
			"JOURNAL_DB_PATH":              "off",
			"ADMIN_JWT_SECRET":             "s3cret",
		}))
		if err != nil {
			t.Fatalf("LoadConfigFrom()でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" || cfg.Environment != "staging" || cfg.GatewayName != "acme" {
			t.Errorf("設定が想定外: %+v", cfg)
		}
		if cfg.GatewayURL != "https://pay.acme.test/api" {
			t.Errorf("GatewayURL = %q", cfg.GatewayURL)
		}
		if cfg.GatewayTimeout != 5*time.Second {
			t.Errorf("GatewayTimeout = %v, want 5s", cfg.GatewayTimeout)
		}
		if !cfg.InsecureSkipVerify {
			t.Error("InsecureSkipVerifyがtrueになっていない")
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
			t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
		}
		if cfg.JournalPath != "" {
			t.Errorf("JournalPath = %q, want empty", cfg.JournalPath)
		}
		if cfg.AdminJWTSecret != "s3cret" {
			t.Errorf("AdminJWTSecret = %q", cfg.AdminJWTSecret)
		}
	})

	t.Run("本番環境でTLS証明書検証の無効化を拒否すること", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFrom(envMap(map[string]string{
			"APP_ENV":                      "production",
			"GATEWAY_INSECURE_SKIP_VERIFY": "true",
		}))
		if err == nil {
			t.Fatal("LoadConfigFrom()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("本番環境でも証明書検証が有効なら受け付けること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFrom(envMap(map[string]string{"APP_ENV": "Production"}))
		if err != nil {
			t.Fatalf("LoadConfigFrom()でエラーが発生: %v", err)
		}
		if !cfg.IsProduction() {
			t.Error("IsProduction()がtrueを返すべき")
		}
	})

	invalid := []struct {
		name string
		env  map[string]string
	}{
		{name: "PORTが数値ではない", env: map[string]string{"PORT": "abc"}},
		{name: "PORTが範囲外", env: map[string]string{"PORT": "70000"}},
		{name: "GATEWAY_URLが相対パス", env: map[string]string{"GATEWAY_URL": "/api"}},
		{name: "GATEWAY_URLがhttp(s)ではない", env: map[string]string{"GATEWAY_URL": "ftp://x.test/api"}},
		{name: "GATEWAY_NAMEにスラッシュを含む", env: map[string]string{"GATEWAY_NAME": "a/b"}},
		{name: "GATEWAY_TIMEOUTの形式が不正", env: map[string]string{"GATEWAY_TIMEOUT": "30"}},
		{name: "GATEWAY_TIMEOUTが負", env: map[string]string{"GATEWAY_TIMEOUT": "-1s"}},
		{name: "GATEWAY_INSECURE_SKIP_VERIFYの形式が不正", env: map[string]string{"GATEWAY_INSECURE_SKIP_VERIFY": "maybe"}},
		{name: "CORS_ALLOWED_ORIGINSが区切り文字のみ", env: map[string]string{"CORS_ALLOWED_ORIGINS": ","}},
	}
	for _, tt := range invalid {
		tt := tt
		t.Run(tt.name+"場合にエラーが返ること", func(t *testing.T) {
			t.Parallel()

			if _, err := LoadConfigFrom(envMap(tt.env)); err == nil {
				t.Fatal("LoadConfigFrom()がエラーを返すべきだが、nilが返った")
			}
		})
	}
}
