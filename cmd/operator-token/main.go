// オペレーター用JWTの発行コマンド。
// OPERATOR_JWT_SECRET が設定されたリレーの /grant-only を呼び出すためのトークンを標準出力に書き出す。
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nao1215/chestrelay/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".envの読み込みに失敗: %v", err)
	}

	name := flag.String("name", "", "オペレーター名（必須）")
	ttl := flag.Duration("ttl", 24*time.Hour, "トークンの有効期間")
	flag.Parse()

	secret := os.Getenv("OPERATOR_JWT_SECRET")
	if secret == "" {
		log.Fatal("OPERATOR_JWT_SECRET が設定されていません")
	}
	if *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, err := middleware.GenerateOperatorJWT(secret, *name, *ttl)
	if err != nil {
		log.Fatalf("トークンの発行に失敗: %v", err)
	}
	fmt.Println(token)
}
