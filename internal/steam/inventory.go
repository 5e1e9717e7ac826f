package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// addItemPath はインベントリへのアイテム付与APIのパス。
const addItemPath = "/IInventoryService/AddItem/v1/"

// GrantResult はアイテム付与の結果。
type GrantResult struct {
	// OK は付与に成功したかどうか。
	OK bool
	// Items は付与されたアイテムのレコード。解析できなかった場合は空。
	Items []json.RawMessage
	// Raw は上流のレスポンスボディ。
	Raw json.RawMessage
}

// addItemResponse はAddItemのレスポンス。
// 成功フラグは環境によって result/success のどちらか、あるいはどちらも設定されない。
// 型が想定と異なっても解析エラーにしないよう、各フィールドは生のまま受け取る。
type addItemResponse struct {
	Response struct {
		Result   json.RawMessage `json:"result"`
		Success  json.RawMessage `json:"success"`
		ItemJSON json.RawMessage `json:"item_json"`
	} `json:"response"`
}

// Grant は指定ユーザーのインベントリにアイテムを付与する。
// quantityが1未満の場合は1として扱う。
//
// 成功判定は次のいずれか:
//   - response.result が 1
//   - response.success が true
//   - response.item_json が1件以上のアイテムを含む配列として解析できる
//
// item_json の解析失敗は無視する（付与失敗の原因にはしない）。
func (c *Client) Grant(ctx context.Context, appID int, steamID string, itemDefID, quantity int) (GrantResult, error) {
	if quantity < 1 {
		quantity = 1
	}
	form := url.Values{
		"key":          {c.publisherKey},
		"appid":        {strconv.Itoa(appID)},
		"steamid":      {steamID},
		"itemdefid[0]": {strconv.Itoa(itemDefID)},
		"quantity[0]":  {strconv.Itoa(quantity)},
	}

	var raw json.RawMessage
	if err := c.http.PostForm(ctx, addItemPath, form, &raw); err != nil {
		return GrantResult{}, fmt.Errorf("アイテム付与リクエストに失敗: %w", err)
	}

	var resp addItemResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return GrantResult{}, fmt.Errorf("アイテム付与レスポンスの解析に失敗: %w", err)
	}

	result := GrantResult{
		OK:    resultIsSuccess(resp.Response.Result) || string(resp.Response.Success) == "true",
		Items: []json.RawMessage{},
		Raw:   raw,
	}
	if items := decodeItemJSON(resp.Response.ItemJSON); len(items) > 0 {
		result.Items = items
		// 一部の設定では成功時にしか item_json が埋まらないため、フラグより優先する
		result.OK = true
	}
	return result, nil
}

// resultIsSuccess は response.result が数値の1かどうかを返す。
func resultIsSuccess(raw json.RawMessage) bool {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	return n == 1
}

// decodeItemJSON はJSON文字列として埋め込まれたアイテム配列を解析する。
// 文字列でない、あるいは配列として解析できない場合はnilを返す。
func decodeItemJSON(raw json.RawMessage) []json.RawMessage {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil || encoded == "" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return nil
	}
	return items
}
