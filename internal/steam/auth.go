package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// authenticateTicketPath はセッションチケット検証APIのパス。
const authenticateTicketPath = "/ISteamUserAuth/AuthenticateUserTicket/v1/"

// Reason はチケット検証が失敗した理由を表す。
type Reason string

const (
	// ReasonAuthFailed はSteamがチケットを受け入れなかったことを表す。
	ReasonAuthFailed Reason = "auth_failed"
	// ReasonSteamIDMismatch はチケット自体は有効だが、申告されたSteamIDと一致しなかったことを表す。
	ReasonSteamIDMismatch Reason = "steamid_mismatch"
)

// VerificationResult はチケット検証の結果。
type VerificationResult struct {
	// OK は検証に成功したかどうか。
	OK bool
	// SteamID はSteamが返したSteamID。返されなかった場合は空。
	SteamID string
	// Reason は失敗理由。成功時は空。
	Reason Reason
	// Raw は上流のレスポンスボディ。
	Raw json.RawMessage
}

// authenticateTicketResponse はAuthenticateUserTicketのレスポンス。
type authenticateTicketResponse struct {
	Response struct {
		Params *struct {
			Result          string `json:"result"`
			SteamID         string `json:"steamid"`
			OwnerSteamID    string `json:"ownersteamid"`
			VACBanned       bool   `json:"vacbanned"`
			PublisherBanned bool   `json:"publisherbanned"`
		} `json:"params"`
		Error *struct {
			ErrorCode int    `json:"errorcode"`
			ErrorDesc string `json:"errordesc"`
		} `json:"error"`
	} `json:"response"`
}

// Verify はセッションチケットをSteamに問い合わせて検証する。
// claimedSteamIDが空でない場合は、Steamが返したSteamIDと完全一致することも要求する。
// 通信エラー・非2xx・JSONでないレスポンスはerrorとして返し、OK扱いにはしない。
func (c *Client) Verify(ctx context.Context, appID int, ticket, claimedSteamID string) (VerificationResult, error) {
	query := url.Values{
		"key":    {c.publisherKey},
		"appid":  {strconv.Itoa(appID)},
		"ticket": {ticket},
	}

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, authenticateTicketPath, query, &raw); err != nil {
		return VerificationResult{}, fmt.Errorf("チケット検証リクエストに失敗: %w", err)
	}

	var resp authenticateTicketResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return VerificationResult{}, fmt.Errorf("チケット検証レスポンスの解析に失敗: %w", err)
	}

	result := VerificationResult{Raw: raw}
	params := resp.Response.Params
	if params != nil {
		result.SteamID = params.SteamID
	}

	upstreamOK := params != nil && params.Result == "OK"
	switch {
	case upstreamOK && (claimedSteamID == "" || claimedSteamID == params.SteamID):
		result.OK = true
	case upstreamOK:
		result.Reason = ReasonSteamIDMismatch
	default:
		result.Reason = ReasonAuthFailed
	}
	return result, nil
}
