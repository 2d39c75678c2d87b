package relay

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/payrelay/pkg/httpclient"
)

// デフォルト設定値。
const (
	defaultPort        = "3001"
	defaultEnvironment = "development"
	defaultGatewayName = "yagoutpay"
	defaultGatewayURL  = "https://uatcheckout.yagoutpay.com/ms-transaction-core-1-0/apiRedirection/apiIntegration"
	defaultJournalPath = "payrelay.db"
)

// environmentProduction は本番環境を表すAPP_ENVの値。
const environmentProduction = "production"

// journalDisabled はJOURNAL_DB_PATHに指定するとジャーナルを無効化する値。
const journalDisabled = "off"

// Config は中継サービスの設定。起動時に一度だけ読み込み、以降は変更しない。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// Environment は実行環境名（development, staging, production など）。
	Environment string
	// GatewayName は /api/payment/:gateway で受け付けるゲートウェイ名。
	GatewayName string
	// GatewayURL は中継先ゲートウェイのURL。
	GatewayURL string
	// GatewayTimeout はゲートウェイ呼び出しのタイムアウト。
	GatewayTimeout time.Duration
	// InsecureSkipVerify がtrueの場合、ゲートウェイのTLS証明書を検証しない。
	// 本番環境では指定できない。
	InsecureSkipVerify bool
	// AllowedOrigins はCORSで許可するオリジン。"*" は全オリジン。
	AllowedOrigins []string
	// JournalPath は中継ジャーナルのSQLiteファイルパス。空の場合はジャーナルを無効化する。
	// 環境変数では "off" を指定すると空になる。
	JournalPath string
	// AdminJWTSecret はジャーナル参照エンドポイントのJWT検証鍵。空の場合はエンドポイントを無効化する。
	AdminJWTSecret string
}

// LoadConfig は環境変数から設定を読み込む。
func LoadConfig() (Config, error) {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom はgetenvで与えられた値から設定を読み込み、検証する。
func LoadConfigFrom(getenv func(string) string) (Config, error) {
	get := func(key, defaultValue string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return defaultValue
	}

	cfg := Config{
		Port:           get("PORT", defaultPort),
		Environment:    get("APP_ENV", defaultEnvironment),
		GatewayName:    get("GATEWAY_NAME", defaultGatewayName),
		GatewayURL:     get("GATEWAY_URL", defaultGatewayURL),
		GatewayTimeout: httpclient.DefaultTimeout,
		AllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*")),
		AdminJWTSecret: getenv("ADMIN_JWT_SECRET"),
	}

	if v := get("JOURNAL_DB_PATH", defaultJournalPath); !strings.EqualFold(v, journalDisabled) {
		cfg.JournalPath = v
	}

	if v := get("GATEWAY_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("GATEWAY_TIMEOUTの形式が不正: %w", err)
		}
		cfg.GatewayTimeout = d
	}

	if v := get("GATEWAY_INSECURE_SKIP_VERIFY", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("GATEWAY_INSECURE_SKIP_VERIFYの形式が不正: %w", err)
		}
		cfg.InsecureSkipVerify = b
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c Config) Validate() error {
	var errs []error

	if n, err := strconv.Atoi(c.Port); err != nil || n < 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("PORTが不正: %q", c.Port))
	}
	if c.GatewayName == "" || strings.Contains(c.GatewayName, "/") {
		errs = append(errs, fmt.Errorf("GATEWAY_NAMEが不正: %q", c.GatewayName))
	}
	if u, err := url.Parse(c.GatewayURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("GATEWAY_URLはhttp(s)の絶対URLである必要があります: %q", c.GatewayURL))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_TIMEOUTは正の値である必要があります: %v", c.GatewayTimeout))
	}
	if c.InsecureSkipVerify && c.IsProduction() {
		errs = append(errs, errors.New("本番環境ではGATEWAY_INSECURE_SKIP_VERIFYを有効化できません"))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINSが空です"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("設定の検証に失敗: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction は本番環境かどうかを返す。
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, environmentProduction)
}

// PaymentPath は決済中継エンドポイントのパスを返す。
func (c Config) PaymentPath() string {
	return "/api/payment/" + c.GatewayName
}

// splitList はカンマ区切りの文字列を空要素を除いて分割する。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
