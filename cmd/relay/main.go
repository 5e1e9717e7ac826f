// リレーサービスのエントリポイント。
// ゲームクライアントのSteamセッションチケットを検証し、報酬プールから抽選した
// アイテムをSteamインベントリに付与する。
package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/nao1215/chestrelay/internal/config"
	"github.com/nao1215/chestrelay/internal/relay"
)

func main() {
	// .env は任意。存在しなければ環境変数だけを使う
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".envの読み込みに失敗: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server := relay.NewServer(cfg)

	log.Printf("リレーサービスを起動します: :%s (appid=%d, drop_keys=%d件)", cfg.Port, cfg.AppID, cfg.RewardPool.Len())
	if err := server.Run(); err != nil {
		log.Fatalf("リレーサービスの起動に失敗: %v", err)
	}
}
