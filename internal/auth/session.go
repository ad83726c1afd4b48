// internal/auth/session.go
package auth

import "errors"

// ErrSessionTerminated 代表同一登入工作階段連續失敗次數已達上限。
var ErrSessionTerminated = errors.New("login session terminated after repeated failures")

// ErrBadCredentials 代表單次登入失敗（使用者不存在或密碼錯誤，不區分）。
var ErrBadCredentials = errors.New("invalid username or password")

// Verifier 為 LoginSession 所需的最小介面；*Store 與 bank.Bank 皆滿足。
type Verifier interface {
	Verify(username, secret string) bool
}

// LoginSession 為呼叫端的登入限流器：連續失敗 max 次後終止本次工作階段。
// 狀態只存在記憶體中，不會鎖定帳戶本身。
type LoginSession struct {
	v        Verifier
	max      int
	failures int
}

// NewLoginSession 建立新的工作階段；max <= 0 時使用 3。
func NewLoginSession(v Verifier, max int) *LoginSession {
	if max <= 0 {
		max = 3
	}
	return &LoginSession{v: v, max: max}
}

// Attempt 嘗試一次登入。成功時重置失敗計數；
// 失敗時回傳 ErrBadCredentials，達上限則回傳 ErrSessionTerminated。
func (s *LoginSession) Attempt(username, secret string) error {
	if s.Terminated() {
		return ErrSessionTerminated
	}
	if s.v.Verify(username, secret) {
		s.failures = 0
		return nil
	}
	s.failures++
	if s.Terminated() {
		return ErrSessionTerminated
	}
	return ErrBadCredentials
}

// Remaining 回傳剩餘可嘗試次數。
func (s *LoginSession) Remaining() int {
	return s.max - s.failures
}

// Terminated 回報工作階段是否已終止。
func (s *LoginSession) Terminated() bool {
	return s.failures >= s.max
}
