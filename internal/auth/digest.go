// internal/auth/digest.go
//
// 憑證摘要（credential digest）的產生與比對。
// 新密碼一律使用 bcrypt（含鹽、定長、不可逆）；bcrypt 只接受 72 bytes，
// 因此先取 SHA-256 再以 base64 編碼（44 bytes）餵給 bcrypt，任何長度的密碼都能使用。
// 自舊版資料檔匯入的 SHA-256 hex 摘要仍可驗證，於下次變更密碼時升級為 bcrypt。
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyDigestLen 為 SHA-256 hex 字串長度。
const legacyDigestLen = sha256.Size * 2

// HashSecret 以 bcrypt 產生摘要；cost 超出範圍時退回 bcrypt.DefaultCost。
func HashSecret(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(prehash(secret), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// MatchSecret 以摘要格式判斷比對方式；任何無法辨識的摘要都視為不符。
func MatchSecret(digest, secret string) bool {
	switch {
	case strings.HasPrefix(digest, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(digest), prehash(secret)) == nil
	case IsLegacyDigest(digest):
		sum := sha256.Sum256([]byte(secret))
		want := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(strings.ToLower(digest)), []byte(want)) == 1
	default:
		return false
	}
}

// IsLegacyDigest 回報 digest 是否為舊版的 SHA-256 hex 摘要。
func IsLegacyDigest(digest string) bool {
	if len(digest) != legacyDigestLen {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
