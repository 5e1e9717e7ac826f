package steam

import (
	"time"

	"github.com/nao1215/chestrelay/pkg/httpclient"
)

// DefaultBaseURL はパートナー向けSteam Web APIのベースURL。
const DefaultBaseURL = "https://partner.steam-api.com"

// requestTimeout は上流呼び出し1回あたりのタイムアウト。
const requestTimeout = 15 * time.Second

// Client はSteam Web APIのクライアント。
// 状態を持たないため、複数のgoroutineから同時に使用してよい。
type Client struct {
	// http は上流へのHTTPクライアント。
	http *httpclient.Client
	// publisherKey はパブリッシャーWeb APIキー。空の場合もそのまま送信する。
	publisherKey string
}

// NewClient は新しいSteamクライアントを生成する。
// baseURLが空の場合は DefaultBaseURL を使用する。
func NewClient(baseURL, publisherKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:         httpclient.New(baseURL, requestTimeout),
		publisherKey: publisherKey,
	}
}
