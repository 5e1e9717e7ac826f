package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/chestrelay/internal/config"
	"github.com/nao1215/chestrelay/internal/ratelimit"
	"github.com/nao1215/chestrelay/internal/rewardpool"
)

// recordingLimiter は呼び出しを記録し、指定したエラーを返すLimiter。
type recordingLimiter struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (l *recordingLimiter) Consume(_ context.Context, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subjects = append(l.subjects, subject)
	return l.err
}

const openChestBody = `{"appid":480,"steamid":"76561197960287930","ticket":"abcd"}`

// TestHandleOpenChest はopen-chestハンドラのテスト。
func TestHandleOpenChest(t *testing.T) {
	t.Parallel()

	t.Run("検証と付与に成功した場合はプール内のitemdefidが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		s := newTestServer(t, fake, nil)
		w := postJSON(s, "/open-chest", openChestBody)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["ok"] != true {
			t.Errorf("ok: got %v, want true", body["ok"])
		}
		id, ok := body["itemdefid"].(float64)
		if !ok || !s.cfg.RewardPool.Contains(int(id)) {
			t.Errorf("itemdefid: got %v, プールに含まれていない", body["itemdefid"])
		}
		grant, _ := body["grant"].(map[string]any)
		if _, ok := grant["response"]; !ok {
			t.Errorf("grant: got %v, want raw upstream payload", body["grant"])
		}

		fake.mu.Lock()
		defer fake.mu.Unlock()
		form := fake.addForms[0]
		if form.Get("itemdefid[0]") != strconv.Itoa(int(id)) {
			t.Errorf("付与したitemdefid: got %q, want %d", form.Get("itemdefid[0]"), int(id))
		}
		if form.Get("steamid") != testSteamID || form.Get("appid") != "480" || form.Get("key") != testKey {
			t.Errorf("付与フォーム: got %v", form)
		}
	})

	t.Run("何度開封しても常にプールの要素が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newFakeSteam(), func(c *config.Config) {
			c.RewardPool = rewardpool.Parse("7;42;1000-1002")
		})
		for range 30 {
			w := postJSON(s, "/open-chest", openChestBody)
			if w.Code != http.StatusOK {
				t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
			}
			id, _ := decodeBody(t, w)["itemdefid"].(float64)
			if !s.cfg.RewardPool.Contains(int(id)) {
				t.Fatalf("itemdefid=%v がプールに含まれていない", id)
			}
		}
	})

	t.Run("プールが1件の場合は常にその要素が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newFakeSteam(), func(c *config.Config) {
			c.RewardPool = rewardpool.Parse("10050")
		})
		w := postForm(s, "/open-chest", url.Values{"appid": {"480"}, "steamid": {testSteamID}, "ticket": {"abcd"}})

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		if id := decodeBody(t, w)["itemdefid"]; id != float64(10050) {
			t.Errorf("itemdefid: got %v, want 10050", id)
		}
	})

	missingCases := []struct {
		name string
		body string
	}{
		{name: "appidが無い場合", body: `{"steamid":"76561197960287930","ticket":"abcd"}`},
		{name: "appidが整数でない場合", body: `{"appid":"steam","steamid":"76561197960287930","ticket":"abcd"}`},
		{name: "appidが0の場合", body: `{"appid":0,"steamid":"76561197960287930","ticket":"abcd"}`},
		{name: "steamidが無い場合", body: `{"appid":480,"ticket":"abcd"}`},
		{name: "ticketが無い場合", body: `{"appid":480,"steamid":"76561197960287930"}`},
	}
	for _, tt := range missingCases {
		t.Run(tt.name+"は400が返ること", func(t *testing.T) {
			t.Parallel()

			fake := newFakeSteam()
			s := newTestServer(t, fake, nil)
			assertError(t, postJSON(s, "/open-chest", tt.body), http.StatusBadRequest, "missing_fields")
			if fake.authCalls.Load() != 0 || fake.addCalls.Load() != 0 {
				t.Error("入力エラーなのにSteamが呼ばれた")
			}
		})
	}

	t.Run("入力不足は設定不備より先に判定されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newFakeSteam(), func(c *config.Config) {
			c.PublisherKey = ""
			c.RewardPool = rewardpool.Parse("")
		})
		assertError(t, postJSON(s, "/open-chest", `{"appid":480}`), http.StatusBadRequest, "missing_fields")
	})

	t.Run("パブリッシャーキー未設定の場合は500でmissing_publisher_keyが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		s := newTestServer(t, fake, func(c *config.Config) { c.PublisherKey = "" })
		assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusInternalServerError, "missing_publisher_key")
		if fake.authCalls.Load() != 0 {
			t.Error("設定不備なのにSteamが呼ばれた")
		}
	})

	t.Run("プールが空の場合は検証が通る状況でも500でserver_not_configuredが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		s := newTestServer(t, fake, func(c *config.Config) { c.RewardPool = rewardpool.Parse("abc;50-10") })
		assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusInternalServerError, "server_not_configured")
		if fake.authCalls.Load() != 0 || fake.addCalls.Load() != 0 {
			t.Error("設定不備なのにSteamが呼ばれた")
		}
	})

	t.Run("チケットが無効な場合は401でauth_failedが返り付与されないこと", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		fake.authBody = authError
		s := newTestServer(t, fake, nil)

		body := assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusUnauthorized, "auth_failed")
		if body["raw"] == nil {
			t.Error("rawが含まれていない")
		}
		if fake.addCalls.Load() != 0 {
			t.Error("認証失敗なのに付与が呼ばれた")
		}
	})

	t.Run("SteamIDが一致しない場合は401でsteamid_mismatchが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		s := newTestServer(t, fake, nil)
		body := `{"appid":480,"steamid":"76561197960000000","ticket":"abcd"}`

		assertError(t, postJSON(s, "/open-chest", body), http.StatusUnauthorized, "steamid_mismatch")
		if fake.addCalls.Load() != 0 {
			t.Error("認証失敗なのに付与が呼ばれた")
		}
	})

	t.Run("付与に失敗した場合は502でrawが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		fake.addBody = addItemFailed
		s := newTestServer(t, fake, nil)

		body := assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusBadGateway, "grant_failed")
		raw, _ := body["raw"].(map[string]any)
		if _, ok := raw["response"]; !ok {
			t.Errorf("raw: got %v", body["raw"])
		}
	})

	t.Run("検証でSteamが非2xxを返した場合は500でステータスコードが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		fake.authStatus = http.StatusTooManyRequests
		s := newTestServer(t, fake, nil)

		body := assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusInternalServerError, "server_error")
		if body["detail"] != float64(http.StatusTooManyRequests) {
			t.Errorf("detail: got %v, want 429", body["detail"])
		}
	})

	t.Run("付与でSteamがJSONでない応答を返した場合は500でメッセージが返ること", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		fake.addBody = `<html>oops</html>`
		s := newTestServer(t, fake, nil)

		body := assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusInternalServerError, "server_error")
		if detail, ok := body["detail"].(string); !ok || detail == "" {
			t.Errorf("detail: got %v, want message", body["detail"])
		}
	})
}

// TestHandleOpenChest_Limiter はレート制限の差し込み口のテスト。
func TestHandleOpenChest_Limiter(t *testing.T) {
	t.Parallel()

	t.Run("検証の前にSteamIDを対象としてリミッターが呼ばれること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newFakeSteam(), nil)
		limiter := &recordingLimiter{}
		s.limiter = limiter

		if w := postJSON(s, "/open-chest", openChestBody); w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		if len(limiter.subjects) != 1 || limiter.subjects[0] != testSteamID {
			t.Errorf("subjects: got %v, want [%s]", limiter.subjects, testSteamID)
		}
	})

	t.Run("リミッターが拒否した場合は429が返りSteamは呼ばれないこと", func(t *testing.T) {
		t.Parallel()

		fake := newFakeSteam()
		s := newTestServer(t, fake, nil)
		s.limiter = &recordingLimiter{err: fmt.Errorf("steamid=%s: %w", testSteamID, ratelimit.ErrLimited)}

		assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusTooManyRequests, "rate_limited")
		if fake.authCalls.Load() != 0 {
			t.Error("拒否されたのにSteamが呼ばれた")
		}
	})

	t.Run("リミッターが想定外のエラーを返した場合は500が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newFakeSteam(), nil)
		s.limiter = &recordingLimiter{err: errors.New("backend down")}

		body := assertError(t, postJSON(s, "/open-chest", openChestBody), http.StatusInternalServerError, "server_error")
		if body["detail"] != "backend down" {
			t.Errorf("detail: got %v, want %q", body["detail"], "backend down")
		}
	})
}

// TestHandleOpenChest_Concurrent は同一ユーザーの並行開封が重複排除されないことを検証する。
// 付与履歴を持たないため、どちらのリクエストも独立して付与まで進むのが想定どおりの動作。
func TestHandleOpenChest_Concurrent(t *testing.T) {
	t.Parallel()

	fake := newFakeSteam()
	s := newTestServer(t, fake, nil)

	const n = 2
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/open-chest", strings.NewReader(openChestBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			codes[i] = w.Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("リクエスト%d: ステータスコード got %d, want %d", i, code, http.StatusOK)
		}
	}
	if got := fake.addCalls.Load(); got != n {
		t.Errorf("付与回数: got %d, want %d", got, n)
	}
}
