package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/payrelay/pkg/event"
	"github.com/nao1215/payrelay/pkg/httpclient"
	"github.com/nao1215/payrelay/pkg/middleware"
)

// maxRequestBodyBytes は受け付けるリクエストボディの最大サイズ（1MB）。
const maxRequestBodyBytes int64 = 1 << 20

// journalTimeout はジャーナル書き込み1件あたりのタイムアウト。
const journalTimeout = 2 * time.Second

// Forwarder はリクエストボディをゲートウェイへ中継する。
// *httpclient.Client が実装する。
type Forwarder interface {
	Forward(ctx context.Context, body []byte) (*httpclient.Result, error)
}

// gatewayInfo は中継先の情報を公開するForwarder。*httpclient.Client が実装する。
type gatewayInfo interface {
	GatewayURL() string
	InsecureSkipVerify() bool
}

// Server は決済中継サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// gatewayName は受け付けるゲートウェイ名。
	gatewayName string
	// forwarder はゲートウェイへの中継クライアント。
	forwarder Forwarder
	// journal は中継結果の記録先。nilの場合は記録しない。
	journal Journal
	// adminJWTSecret はジャーナル参照エンドポイントのJWT検証鍵。
	adminJWTSecret string
}

// NewServer は設定から新しい中継サーバーを生成する。
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var journal Journal
	if cfg.JournalPath != "" {
		j, err := OpenSQLiteJournal(context.Background(), cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("ジャーナルの初期化に失敗: %w", err)
		}
		journal = j
	}

	client := httpclient.New(cfg.GatewayURL,
		httpclient.WithTimeout(cfg.GatewayTimeout),
		httpclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)

	return newServer(newRouter(cfg.AllowedOrigins), cfg, client, journal), nil
}

// newRouter は共通ミドルウェアを適用したルーターを生成する。
func newRouter(allowedOrigins []string) *gin.Engine {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = allowedOrigins

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cors))
	return router
}

// newServer は依存を受け取ってサーバーを組み立てる。
func newServer(router *gin.Engine, cfg Config, forwarder Forwarder, journal Journal) *Server {
	s := &Server{
		router:         router,
		port:           cfg.Port,
		gatewayName:    cfg.GatewayName,
		forwarder:      forwarder,
		journal:        journal,
		adminJWTSecret: cfg.AdminJWTSecret,
	}
	s.setupRoutes()
	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はルーターをhttp.Handlerとして返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// GatewayURL は中継先ゲートウェイのURLを返す。
func (s *Server) GatewayURL() string {
	if info, ok := s.forwarder.(gatewayInfo); ok {
		return info.GatewayURL()
	}
	return ""
}

// InsecureSkipVerify は中継クライアントがTLS証明書検証を無効化しているかを返す。
func (s *Server) InsecureSkipVerify() bool {
	if info, ok := s.forwarder.(gatewayInfo); ok {
		return info.InsecureSkipVerify()
	}
	return false
}

// Close はサーバーが保持するリソースを解放する。
func (s *Server) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 決済中継
	s.router.POST("/api/payment/:gateway", s.handlePayment())

	// 中継ジャーナル（運用者のみ）
	if s.journal != nil && s.adminJWTSecret != "" {
		api := s.router.Group("/api/v1")
		api.Use(middleware.JWTAuth(s.adminJWTSecret))
		{
			api.GET("/relays", s.handleListRelays())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payrelay", "gateway": s.gatewayName})
	})
}

// handlePayment は決済リクエストをゲートウェイへ中継するハンドラを返す。
// リクエスト自体を拒否した場合を除き常にHTTP 200で返し、結果はエンベロープで表す。
func (s *Server) handlePayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := middleware.GetRequestID(c)

		if name := c.Param("gateway"); name != s.gatewayName {
			c.JSON(http.StatusNotFound, failureEnvelope(http.StatusNotFound, "unknown gateway: "+name, requestID))
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.reject(c, requestID, "", http.StatusRequestEntityTooLarge, messageTooLarge)
				return
			}
			s.reject(c, requestID, "", http.StatusBadRequest, messageInvalidJSON)
			return
		}

		req, err := parseInboundRequest(body)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				s.reject(c, requestID, req.MerchantID(), http.StatusBadRequest, verr.Message)
				return
			}
			c.JSON(http.StatusOK, failureEnvelope(http.StatusInternalServerError, err.Error(), requestID))
			return
		}

		merchantID := req.MerchantID()
		log.Printf("[Relay] 決済リクエストを受信: request_id=%s, merchant_id=%s, has_merchant_request=%t",
			requestID, merchantID, req.HasMerchantRequest())

		// 呼び出し元の切断をゲートウェイ呼び出しに伝播させない。タイムアウトはクライアント側で効く。
		ctx := context.WithoutCancel(c.Request.Context())
		start := time.Now()
		result, err := s.forwarder.Forward(ctx, body)
		elapsed := time.Since(start)

		if err != nil {
			var relayErr *httpclient.RelayError
			if !errors.As(err, &relayErr) {
				log.Printf("[Relay] 予期しないエラー: request_id=%s, error=%v", requestID, err)
				c.JSON(http.StatusOK, failureEnvelope(http.StatusInternalServerError, err.Error(), requestID))
				return
			}
			log.Printf("[Relay] 中継に失敗: request_id=%s, merchant_id=%s, error=%v", requestID, merchantID, relayErr)
			s.record(ctx, requestID, merchantID, event.TypeRelayFailed, event.RelayFailedData{
				Code:           relayErr.Code,
				Message:        relayErr.Message,
				RequestBytes:   len(body),
				DurationMillis: elapsed.Milliseconds(),
			})
			c.JSON(http.StatusOK, relayFailureEnvelope(relayErr, requestID))
			return
		}

		log.Printf("[Relay] 中継が完了: request_id=%s, merchant_id=%s, gateway_status=%d, elapsed=%v",
			requestID, merchantID, result.Status, elapsed)
		s.record(ctx, requestID, merchantID, event.TypeRelayCompleted, event.RelayCompletedData{
			GatewayStatus:  result.Status,
			ContentType:    result.Headers.Get("Content-Type"),
			ResponseBytes:  len(result.Data),
			RequestBytes:   len(body),
			DurationMillis: elapsed.Milliseconds(),
			ReadError:      result.Error,
		})
		c.JSON(http.StatusOK, successEnvelope(result, requestID))
	}
}

// reject は中継せずにリクエストを拒否する。
func (s *Server) reject(c *gin.Context, requestID, merchantID string, status int, msg string) {
	log.Printf("[Relay] リクエストを拒否: request_id=%s, status=%d, reason=%s", requestID, status, msg)
	s.record(c.Request.Context(), requestID, merchantID, event.TypeRelayRejected, event.RelayRejectedData{Reason: msg})
	c.JSON(status, failureEnvelope(status, msg, requestID))
}

// record は中継結果をジャーナルに記録する。失敗してもレスポンスには影響させない。
func (s *Server) record(ctx context.Context, requestID, merchantID string, eventType event.Type, data any) {
	if s.journal == nil {
		return
	}

	ev, err := event.New(requestID, merchantID, s.gatewayName, eventType, data)
	if err != nil {
		log.Printf("[Journal] イベント生成に失敗: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := s.journal.Record(ctx, ev); err != nil {
		log.Printf("[Journal] イベント記録に失敗: request_id=%s, error=%v", requestID, err)
	}
}

// handleListRelays は中継ジャーナルを新しい順に返すハンドラを返す。
// クエリパラメータ: merchant_id, type, limit
func (s *Server) handleListRelays() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := ListFilter{
			MerchantID: c.Query("merchant_id"),
			EventType:  event.Type(c.Query("type")),
		}

		if filter.EventType != "" && !filter.EventType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "typeが不正です"})
			return
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limitは正の整数で指定してください"})
				return
			}
			filter.Limit = n
		}

		operator := middleware.GetOperator(c)
		log.Printf("[Journal] 一覧取得: operator=%s, merchant_id=%s, type=%s, limit=%d",
			operator, filter.MerchantID, filter.EventType, filter.Limit)

		events, err := s.journal.List(c.Request.Context(), filter)
		if err != nil {
			log.Printf("[Journal] 一覧取得に失敗: operator=%s, error=%v", operator, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ジャーナルの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"events": events,
			"count":  len(events),
		})
	}
}
