package relay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexString はJSONの文字列と数値のどちらでも受け付ける文字列。
// SteamIDやitemdefidはクライアントによって数値で送られることがある。
type flexString string

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("文字列または数値ではありません: %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// UnmarshalParam はフォーム値のバインド時に呼ばれる（binding.BindUnmarshaler）。
func (f *flexString) UnmarshalParam(param string) error {
	*f = flexString(strings.TrimSpace(param))
	return nil
}

// positiveInt は値を正の整数として解釈する。解釈できない場合はfalseを返す。
func (f flexString) positiveInt() (int, bool) {
	n, err := strconv.Atoi(string(f))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// optionalID は省略可能な整数ID。
// 文字列・数値以外の値が送られてもバインドを失敗させず、未指定として扱う。
type optionalID string

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (o *optionalID) UnmarshalJSON(b []byte) error {
	var f flexString
	if err := f.UnmarshalJSON(b); err != nil {
		*o = ""
		return nil
	}
	*o = optionalID(f)
	return nil
}

// UnmarshalParam はフォーム値のバインド時に呼ばれる（binding.BindUnmarshaler）。
func (o *optionalID) UnmarshalParam(param string) error {
	*o = optionalID(strings.TrimSpace(param))
	return nil
}

// positiveInt は値を正の整数として解釈する。未指定や解釈できない場合はfalseを返す。
func (o optionalID) positiveInt() (int, bool) {
	return flexString(o).positiveInt()
}

// verifyOnlyRequest は POST /verify-only のリクエスト。
type verifyOnlyRequest struct {
	// AppID は省略可能。省略時や正の整数でない場合は設定のAPPIDを使う。
	AppID optionalID `json:"appid" form:"appid"`
	// SteamID はクライアントが申告するSteamID。Steamが返したSteamIDと照合する。
	SteamID flexString `json:"steamid" form:"steamid" binding:"required"`
	// Ticket はクライアントが取得したセッションチケット（16進文字列）。
	Ticket flexString `json:"ticket" form:"ticket" binding:"required"`
}

// grantOnlyRequest は POST /grant-only のリクエスト。
type grantOnlyRequest struct {
	// SteamID は付与先のSteamID。
	SteamID flexString `json:"steamid" form:"steamid" binding:"required"`
	// ItemDefID は付与するアイテム定義ID。正の整数でなければならない。
	ItemDefID flexString `json:"itemdefid" form:"itemdefid" binding:"required"`
}

// openChestRequest は POST /open-chest のリクエスト。
type openChestRequest struct {
	// AppID はチケットの発行先かつ付与先のアプリケーションID。正の整数でなければならない。
	AppID flexString `json:"appid" form:"appid" binding:"required"`
	// SteamID はクライアントが申告するSteamID。検証成功時はこのSteamIDに付与する。
	SteamID flexString `json:"steamid" form:"steamid" binding:"required"`
	// Ticket はクライアントが取得したセッションチケット（16進文字列）。
	Ticket flexString `json:"ticket" form:"ticket" binding:"required"`
}
