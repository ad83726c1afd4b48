// internal/storage/jsonstore.go
//
// 提供 JSON 快照 (Snapshot) 的讀寫實作。
// 寫入採「原子寫入」：同目錄下建立暫存檔、fsync 後以 rename() 取代原檔，
// 中途中斷時原檔保持完整。
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound 代表資料檔不存在（首次啟動）。
	ErrNotFound = errors.New("snapshot not found")

	// ErrMalformed 代表資料檔存在但無法解析或未通過驗證。
	ErrMalformed = errors.New("malformed snapshot")
)

// FileStore 為以單一 JSON 檔保存狀態的 Persistence Gateway。
// mu 序列化寫入，避免兩次保存交錯寫出同一暫存檔。
type FileStore struct {
	path     string
	mu       sync.Mutex
	validate *validator.Validate
	log      zerolog.Logger
}

// NewFileStore 建立指向 path 的檔案儲存。
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, validate: newValidator(), log: log}
}

// Path 回傳資料檔路徑。
func (s *FileStore) Path() string { return s.path }

// Load 讀取並驗證資料檔。
// 檔案不存在回傳 ErrNotFound；格式錯誤回傳包裝 ErrMalformed 的錯誤。
// 沒有 "accounts" 欄位的文件會以舊版扁平格式匯入。
func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}

	snap, legacy, err := decode(raw)
	if err != nil {
		return Snapshot{}, err
	}
	if legacy {
		s.log.Info().Str("path", s.path).Int("accounts", len(snap.Accounts)).Msg("imported legacy data file")
	}
	if err := validateSnapshot(s.validate, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Save 以原子方式寫出快照，並蓋上儲存類型、版本與時間戳。
func (s *FileStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := SaveSnapshot(s.path, snap); err != nil {
		return err
	}
	s.log.Debug().
		Str("path", s.path).
		Int("accounts", len(snap.Accounts)).
		Dur("took", time.Since(start)).
		Msg("snapshot saved")
	return nil
}

// decode 判斷文件格式並解析；回傳值 legacy 表示是否為舊版扁平格式。
func decode(raw []byte) (Snapshot, bool, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// 新格式一定同時帶有 _meta 與 accounts；舊版的頂層鍵全是使用者名稱，
	// 可能剛好有人叫 "accounts"，因此只看 accounts 不夠
	_, hasMeta := top["_meta"]
	_, hasAccounts := top["accounts"]
	if !hasMeta || !hasAccounts {
		snap, err := decodeLegacy(raw)
		return snap, true, err
	}

	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if snap.Meta.Version > SchemaVersion {
		return Snapshot{}, false, fmt.Errorf("%w: unsupported version %d", ErrMalformed, snap.Meta.Version)
	}
	if snap.Accounts == nil {
		snap.Accounts = make(map[string]PersistAccount)
	}
	return snap, false, nil
}

// SaveSnapshot 將 Snapshot 以縮排 JSON 原子寫入 path：
//  1. 同目錄建立暫存檔（權限 0600）。
//  2. 寫入、fsync、關閉。
//  3. os.Rename() 取代正式檔案。
func SaveSnapshot(path string, snap Snapshot) error {
	snap.Meta.Storage = "json_snapshot"
	snap.Meta.Version = SchemaVersion
	snap.Meta.Timestamp = time.Now()
	if snap.Accounts == nil {
		snap.Accounts = make(map[string]PersistAccount)
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	// 失敗時清掉暫存檔；成功 rename 後 Remove 會回傳 ErrNotExist，忽略即可
	defer os.Remove(tmp)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
