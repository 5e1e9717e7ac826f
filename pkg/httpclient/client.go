package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout は外部サービス呼び出し1回あたりのタイムアウト。
const DefaultTimeout = 15 * time.Second

// Client は外部サービス呼び出し用のHTTPクライアント。
// リトライは行わない。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
}

// New は新しいHTTPクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "https://partner.steam-api.com"）を指定する。
// timeoutが0以下の場合は DefaultTimeout を使用する。
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// StatusError は外部サービスが2xx以外のステータスを返したことを表す。
type StatusError struct {
	// StatusCode はレスポンスのHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// GetJSON は指定パスにクエリパラメータ付きでGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, target, "", nil, result)
}

// PostForm は指定パスにフォーム形式（application/x-www-form-urlencoded）のボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, result any) error {
	return c.do(ctx, http.MethodPost, c.baseURL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), result)
}

// do はHTTPリクエストを実行する共通処理。
func (c *Client) do(ctx context.Context, method, target, contentType string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", stripURL(err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

// stripURL は *url.Error からリクエストURLを取り除く。
// URLのクエリにはパブリッシャーキー（key）が含まれるため、エラーメッセージに残してはならない。
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
