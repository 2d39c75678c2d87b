package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"
)

// DefaultTimeout はゲートウェイ呼び出しのデフォルトタイムアウト。
const DefaultTimeout = 30 * time.Second

// Result はゲートウェイから得たHTTP応答。
// ステータスが4xx/5xxでも失敗としては扱わない。
type Result struct {
	// Status はゲートウェイが返したHTTPステータスコード。
	Status int
	// Data はゲートウェイが返したレスポンスボディ。
	Data []byte
	// Headers はゲートウェイが返したレスポンスヘッダー。
	Headers http.Header
	// Error は応答を受信した後にボディの読み取りで失敗した場合のメッセージ。
	// タイムアウトによる失敗はここには入らず、*RelayError になる。
	Error string
}

// Client は決済ゲートウェイへの中継用HTTPクライアント。
// 接続先URLとタイムアウトは生成時に固定される。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// gatewayURL は中継先ゲートウェイのURL。
	gatewayURL string
	// timeout はゲートウェイ呼び出しのタイムアウト。
	timeout time.Duration
	// insecureSkipVerify がtrueの場合、サーバー証明書を検証しない。
	insecureSkipVerify bool
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTimeout はゲートウェイ呼び出しのタイムアウトを設定する。
// 0以下の値は無視する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInsecureSkipVerify はTLS証明書検証の無効化を設定する。
// ステージング環境専用。本番環境では使用しないこと。
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecureSkipVerify = skip
	}
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
// 指定した場合、WithTimeoutとWithInsecureSkipVerifyは適用されない。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New は新しいゲートウェイ中継クライアントを生成する。
// gatewayURLには中継先のURL（例: "https://gateway.example.com/api"）を指定する。
func New(gatewayURL string, opts ...Option) *Client {
	c := &Client{
		gatewayURL: gatewayURL,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // ステージング環境のみで有効化される
			}
		}
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		}
	}
	return c
}

// GatewayURL は中継先ゲートウェイのURLを返す。
func (c *Client) GatewayURL() string {
	return c.gatewayURL
}

// Timeout はゲートウェイ呼び出しのタイムアウトを返す。
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// InsecureSkipVerify はTLS証明書検証が無効化されているかを返す。
func (c *Client) InsecureSkipVerify() bool {
	return c.insecureSkipVerify
}

// Forward はbodyを加工せずにゲートウェイへPOSTする。
// HTTP応答を受信できた場合はステータスに関わらず *Result を返す。
// 応答を受信できなかった場合と、ボディの受信中にタイムアウトした場合は *RelayError を返す。
func (c *Client) Forward(ctx context.Context, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("HTTPリクエストの作成に失敗: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Printf("[Relay] ゲートウェイへ中継します: url=%s, body_length=%d", c.gatewayURL, len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Relay] ゲートウェイとの通信に失敗: %v", err)
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	result := &Result{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
	}

	data, err := io.ReadAll(resp.Body)
	result.Data = data
	if err != nil {
		if isTimeout(err) {
			log.Printf("[Relay] レスポンスボディの受信中にタイムアウト: status=%d, received=%d, error=%v", result.Status, len(data), err)
			return nil, newNetworkError(err)
		}
		// ヘッダーまでは受信できているので応答ありとして扱う
		result.Error = fmt.Sprintf("レスポンスボディの読み取りに失敗: %v", err)
		log.Printf("[Relay] %s", result.Error)
		return result, nil
	}

	log.Printf("[Relay] ゲートウェイから応答を受信: status=%d, body_length=%d", result.Status, len(data))
	return result, nil
}

// isTimeout はerrがタイムアウトまたはコンテキストの期限切れによるものかを返す。
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
