// internal/auth/store.go
//
// Store 為憑證儲存區：username → 摘要。只做查找與驗證，不依賴其他模組。
// 密碼長度等政策由呼叫端（bank）負責。
package auth

import (
	"errors"
	"sync"
)

var (
	// ErrDuplicateUsername 代表使用者名稱已被註冊。
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrUnknownUser 代表要更新的使用者不存在。
	ErrUnknownUser = errors.New("unknown user")
)

// Store 以 RWMutex 保護內部 map，可安全併發使用。
type Store struct {
	mu      sync.RWMutex
	cost    int
	digests map[string]string
}

// NewStore 建立空的憑證儲存區；cost 為 bcrypt 成本。
func NewStore(cost int) *Store {
	return &Store{cost: cost, digests: make(map[string]string)}
}

// Register 為新使用者儲存密碼摘要；名稱重複時回傳 ErrDuplicateUsername。
func (s *Store) Register(username, secret string) error {
	// bcrypt 計算成本高，先在鎖外完成
	d, err := HashSecret(secret, s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.digests[username]; ok {
		return ErrDuplicateUsername
	}
	s.digests[username] = d
	return nil
}

// Verify 重新計算 secret 的摘要並與儲存值比對。未知使用者一律回傳 false。
func (s *Store) Verify(username, secret string) bool {
	s.mu.RLock()
	d, ok := s.digests[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return MatchSecret(d, secret)
}

// Replace 以新密碼覆寫既有摘要。
func (s *Store) Replace(username, secret string) error {
	d, err := HashSecret(secret, s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.digests[username]; !ok {
		return ErrUnknownUser
	}
	s.digests[username] = d
	return nil
}

// Remove 刪除 username 的摘要；僅供建立帳戶失敗時回復使用。
func (s *Store) Remove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.digests, username)
}

// Digest 回傳儲存中的原始摘要（供持久化使用）。
func (s *Store) Digest(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.digests[username]
	return d, ok
}

// Snapshot 回傳所有摘要的拷貝。
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.digests))
	for k, v := range s.digests {
		out[k] = v
	}
	return out
}

// Restore 以 digests 取代整個儲存區內容；摘要原樣保留，不重新計算。
func (s *Store) Restore(digests map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digests = make(map[string]string, len(digests))
	for k, v := range digests {
		s.digests[k] = v
	}
}
