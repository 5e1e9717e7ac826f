package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/chestrelay/internal/rewardpool"
	"github.com/nao1215/chestrelay/internal/steam"
)

// keyPrefixLen はヘルスチェックで公開するパブリッシャーキーの先頭文字数。
const keyPrefixLen = 4

// Config はリレーサービスの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// AppID はSteamのアプリケーションID。リクエストで省略された場合の既定値にもなる。
	AppID int
	// PublisherKey はSteamパブリッシャーWeb APIキー。空の場合は付与系の操作が失敗する。
	PublisherKey string
	// RewardPool は宝箱から排出されるアイテム定義IDの候補。
	RewardPool rewardpool.Pool
	// LimiterEnabled はレート制限の有効化フラグ。現在は参照されるだけで動作に影響しない。
	LimiterEnabled bool
	// SteamAPIBaseURL はSteam Web APIのベースURL。
	SteamAPIBaseURL string
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// OperatorSecret はオペレーター用JWTの署名鍵。設定時は /grant-only にJWTが必要になる。
	OperatorSecret string
}

// Load は環境変数から設定を読み込む。
// APPID が整数として解釈できない場合はエラーを返す。DROP_KEYS の不正なトークンは無視する。
func Load() (Config, error) {
	appID := 0
	if v := strings.TrimSpace(os.Getenv("APPID")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("APPIDの解析に失敗: %q", v)
		}
		appID = n
	}

	return Config{
		Port:            getEnvOr("PORT", "3000"),
		AppID:           appID,
		PublisherKey:    strings.TrimSpace(os.Getenv("STEAM_PUBLISHER_KEY")),
		RewardPool:      rewardpool.Parse(os.Getenv("DROP_KEYS")),
		LimiterEnabled:  parseBool(os.Getenv("LIMITER_ENABLED")),
		SteamAPIBaseURL: getEnvOr("STEAM_API_BASE_URL", steam.DefaultBaseURL),
		AllowedOrigins:  splitList(os.Getenv("ALLOWED_ORIGINS")),
		OperatorSecret:  os.Getenv("OPERATOR_JWT_SECRET"),
	}, nil
}

// HasPublisherKey はパブリッシャーキーが設定されているかどうかを返す。
func (c Config) HasPublisherKey() bool {
	return c.PublisherKey != ""
}

// KeyPrefix はパブリッシャーキーの先頭数文字を返す。キー全体は決して返さない。
func (c Config) KeyPrefix() string {
	if len(c.PublisherKey) <= keyPrefixLen {
		// 短すぎるキーは先頭でもほぼ全体になるため伏せる
		return ""
	}
	return c.PublisherKey[:keyPrefixLen]
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
