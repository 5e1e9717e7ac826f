package relay

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/chestrelay/internal/ratelimit"
	"github.com/nao1215/chestrelay/pkg/httpclient"
	"github.com/nao1215/chestrelay/pkg/middleware"
)

// エラーレスポンスの error フィールドに入る値。
const (
	errMissingFields       = "missing_fields"
	errMissingPublisherKey = "missing_publisher_key"
	errServerNotConfigured = "server_not_configured"
	errGrantFailed         = "grant_failed"
	errServerError         = "server_error"
	errRateLimited         = "rate_limited"
)

// grantQuantity は1回の付与で追加する個数。
const grantQuantity = 1

// handleVerifyOnly はチケットの検証だけを行うハンドラを返す。
// appidが省略された場合や正の整数として解釈できない場合は設定のAPPIDを使う。
func (s *Server) handleVerifyOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyOnlyRequest
		if err := c.ShouldBind(&req); err != nil {
			respondMissingFields(c)
			return
		}

		appID, ok := req.AppID.positiveInt()
		if !ok {
			appID = s.cfg.AppID
		}

		result, err := s.verifier.Verify(c.Request.Context(), appID, string(req.Ticket), string(req.SteamID))
		if err != nil {
			respondServerError(c, "verify-only", err)
			return
		}
		if !result.OK {
			log.Printf("[Relay] verify-only: 認証失敗 steamid=%s reason=%s request_id=%s", req.SteamID, result.Reason, middleware.GetRequestID(c))
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": string(result.Reason), "raw": result.Raw})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "steamid": result.SteamID})
	}
}

// handleGrantOnly はチケット検証を経ずにアイテムを付与するハンドラを返す。
// オペレーター・デバッグ用の経路。
func (s *Server) handleGrantOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req grantOnlyRequest
		if err := c.ShouldBind(&req); err != nil {
			respondMissingFields(c)
			return
		}
		itemDefID, ok := req.ItemDefID.positiveInt()
		if !ok {
			respondMissingFields(c)
			return
		}
		if !s.cfg.HasPublisherKey() {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": errMissingPublisherKey})
			return
		}

		result, err := s.granter.Grant(c.Request.Context(), s.cfg.AppID, string(req.SteamID), itemDefID, grantQuantity)
		if err != nil {
			respondServerError(c, "grant-only", err)
			return
		}
		if !result.OK {
			log.Printf("[Relay] grant-only: 付与失敗 steamid=%s itemdefid=%d request_id=%s", req.SteamID, itemDefID, middleware.GetRequestID(c))
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": errGrantFailed, "raw": result.Raw})
			return
		}

		log.Printf("[Relay] grant-only: 付与成功 steamid=%s itemdefid=%d operator=%s request_id=%s",
			req.SteamID, itemDefID, middleware.GetOperator(c), middleware.GetRequestID(c))
		c.JSON(http.StatusOK, gin.H{"ok": true, "granted": result.Items, "raw": result.Raw})
	}
}

// handleOpenChest は宝箱を開封するハンドラを返す。
// チケット検証 → 報酬プールから一様ランダムに抽選 → アイテム付与 の順に実行する。
// リトライや重複排除は行わない。
func (s *Server) handleOpenChest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openChestRequest
		if err := c.ShouldBind(&req); err != nil {
			respondMissingFields(c)
			return
		}
		appID, ok := req.AppID.positiveInt()
		if !ok {
			respondMissingFields(c)
			return
		}
		if !s.cfg.HasPublisherKey() {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": errMissingPublisherKey})
			return
		}
		if s.cfg.RewardPool.Len() == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": errServerNotConfigured})
			return
		}

		ctx := c.Request.Context()
		steamID := string(req.SteamID)

		if err := s.limiter.Consume(ctx, steamID); err != nil {
			if errors.Is(err, ratelimit.ErrLimited) {
				c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": errRateLimited})
				return
			}
			respondServerError(c, "open-chest", err)
			return
		}

		verification, err := s.verifier.Verify(ctx, appID, string(req.Ticket), steamID)
		if err != nil {
			respondServerError(c, "open-chest", err)
			return
		}
		if !verification.OK {
			log.Printf("[Relay] open-chest: 認証失敗 steamid=%s reason=%s request_id=%s", steamID, verification.Reason, middleware.GetRequestID(c))
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": string(verification.Reason), "raw": verification.Raw})
			return
		}

		itemDefID, err := s.cfg.RewardPool.Pick()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": errServerNotConfigured})
			return
		}

		grant, err := s.granter.Grant(ctx, appID, steamID, itemDefID, grantQuantity)
		if err != nil {
			respondServerError(c, "open-chest", err)
			return
		}
		if !grant.OK {
			log.Printf("[Relay] open-chest: 付与失敗 steamid=%s itemdefid=%d request_id=%s", steamID, itemDefID, middleware.GetRequestID(c))
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": errGrantFailed, "raw": grant.Raw})
			return
		}

		log.Printf("[Relay] open-chest: 付与成功 steamid=%s itemdefid=%d request_id=%s", steamID, itemDefID, middleware.GetRequestID(c))
		c.JSON(http.StatusOK, gin.H{"ok": true, "itemdefid": itemDefID, "grant": grant.Raw})
	}
}

// respondMissingFields は必須項目の不足を400で返す。
func respondMissingFields(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": errMissingFields})
}

// respondServerError は想定外のエラーを500で返す。
// detail には上流のステータスコードがあればそれを、なければエラーメッセージを入れる。
func respondServerError(c *gin.Context, op string, err error) {
	log.Printf("[Relay] %s: エラー request_id=%s: %v", op, middleware.GetRequestID(c), err)

	var detail any = err.Error()
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		detail = statusErr.StatusCode
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": errServerError, "detail": detail})
}
