package relay

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/chestrelay/internal/config"
	"github.com/nao1215/chestrelay/internal/ratelimit"
	"github.com/nao1215/chestrelay/internal/steam"
	"github.com/nao1215/chestrelay/pkg/middleware"
)

// IdentityVerifier はセッションチケットを検証する。
type IdentityVerifier interface {
	Verify(ctx context.Context, appID int, ticket, claimedSteamID string) (steam.VerificationResult, error)
}

// GrantIssuer はユーザーのインベントリにアイテムを付与する。
type GrantIssuer interface {
	Grant(ctx context.Context, appID int, steamID string, itemDefID, quantity int) (steam.GrantResult, error)
}

// Server はリレーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// cfg は起動時に読み込んだ設定。以降変更しない。
	cfg config.Config
	// verifier はチケット検証を行う。
	verifier IdentityVerifier
	// granter はアイテム付与を行う。
	granter GrantIssuer
	// limiter は宝箱開封前に通すレート制限。
	limiter ratelimit.Limiter
}

// NewServer は新しいリレーサーバーを生成する。
// SteamクライアントはcfgのベースURLとパブリッシャーキーで構築する。
func NewServer(cfg config.Config) *Server {
	client := steam.NewClient(cfg.SteamAPIBaseURL, cfg.PublisherKey)

	if cfg.LimiterEnabled {
		log.Println("[Relay] LIMITER_ENABLED が指定されていますが、レート制限は未実装のため常に許可します")
	}
	if !cfg.HasPublisherKey() {
		log.Println("[Relay] STEAM_PUBLISHER_KEY が未設定です。付与系のエンドポイントは失敗します")
	}
	if cfg.RewardPool.Len() == 0 {
		log.Println("[Relay] DROP_KEYS が空です。/open-chest は server_not_configured を返します")
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:   router,
		port:     cfg.Port,
		cfg:      cfg,
		verifier: client,
		granter:  client,
		limiter:  ratelimit.Disabled{},
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth())

	s.router.POST("/verify-only", s.handleVerifyOnly())
	s.router.POST("/open-chest", s.handleOpenChest())

	// 検証を経ないオペレーター・デバッグ用の経路
	if s.cfg.OperatorSecret != "" {
		s.router.POST("/grant-only", middleware.OperatorAuth(s.cfg.OperatorSecret), s.handleGrantOnly())
	} else {
		s.router.POST("/grant-only", s.handleGrantOnly())
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not_found"})
	})
}

// handleHealth は稼働状態と設定の概要を返すハンドラを返す。
// パブリッシャーキーは先頭数文字だけを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":              true,
			"appid":           s.cfg.AppID,
			"drop_keys":       s.cfg.RewardPool.Values(),
			"has_key":         s.cfg.HasPublisherKey(),
			"key_prefix":      s.cfg.KeyPrefix(),
			"limiter_enabled": s.cfg.LimiterEnabled,
		})
	}
}
