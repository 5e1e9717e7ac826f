package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// operatorIssuer はオペレーター用JWTの発行者。
const operatorIssuer = "chestrelay-operator"

// contextKeyOperator はGinコンテキストにオペレーター名を格納するキー。
const contextKeyOperator = "operator"

// OperatorClaims はオペレーター用JWTのクレーム。
// Subject にオペレーター名を格納する。
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// GenerateOperatorJWT はオペレーター用のJWTトークンを生成する。
// ttlが0以下の場合は24時間とする。
func GenerateOperatorJWT(secret, operator string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    operatorIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// OperatorAuth はオペレーター用JWTを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストにオペレーター名を設定する。
func OperatorAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if authHeader == "" || !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":    false,
				"error": "unauthorized",
			})
			return
		}

		claims := &OperatorClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(operatorIssuer),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":    false,
				"error": "unauthorized",
			})
			return
		}

		c.Set(contextKeyOperator, claims.Subject)
		c.Next()
	}
}

// GetOperator はGinコンテキストからオペレーター名を取得する。
// OperatorAuthミドルウェアが適用されていない場合は空文字列を返す。
func GetOperator(c *gin.Context) string {
	return c.GetString(contextKeyOperator)
}
