// Package ratelimit は宝箱開封フローに差し込むレート制限の抽象を提供する。
//
// 現在は常に許可する Disabled のみを提供する。
package ratelimit

import (
	"context"
	"errors"
)

// ErrLimited は対象の消費が許可されなかったことを表す。
// 実装はこのエラーをラップして返すこと。
var ErrLimited = errors.New("レート制限を超過しました")

// Limiter は対象（SteamID等）ごとの消費を判定する。
type Limiter interface {
	// Consume は subject の枠を1つ消費する。許可されない場合はエラーを返す。
	Consume(ctx context.Context, subject string) error
}

// Disabled は何も計測せず常に許可する Limiter。
type Disabled struct{}

var _ Limiter = Disabled{}

// Consume は常にnilを返す。
func (Disabled) Consume(_ context.Context, _ string) error {
	return nil
}
