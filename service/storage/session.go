package storage

import (
	"context"
	"encoding/json"
	"time"

	redis2 "JBProject/service/storage/redis"
	"JBProject/tools/ids"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ===== 配置 =====

type SessionConfig struct {
	NodeID    string        // 节点ID（参与日志）
	TTL       time.Duration // 会话TTL（<=0 用默认 24h）
	KeyPrefix string        // 默认 "sess:"
}

func (c *SessionConfig) norm() {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "sess:"
	}
}

// ErrSessionNotFound 会话不存在（过期/登出/伪造的sid都会走到这里）
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord 服务端会话记录；网关核心只读，不写
type SessionRecord struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"` // seeker / employer / admin
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"ua,omitempty"`
	LoginAt   time.Time `json:"login_at"`
}

// ===== 管理器 =====

type SessionManager struct {
	conf SessionConfig
	rdb  *redis.Client
}

var sessionMgr *SessionManager

// InitSessionManager 进程级单例；main 初始化后各模块用 GetSessionManager 取
func InitSessionManager(conf SessionConfig) *SessionManager {
	conf.norm()
	sessionMgr = &SessionManager{conf: conf, rdb: redis2.GetRedis()}
	return sessionMgr
}

func GetSessionManager() *SessionManager {
	if sessionMgr == nil {
		panic("SessionManager not initialized")
	}
	return sessionMgr
}

// NewSessionManager 注入式构造（单测用）
func NewSessionManager(conf SessionConfig, rdb *redis.Client) *SessionManager {
	conf.norm()
	return &SessionManager{conf: conf, rdb: rdb}
}

func (m *SessionManager) key(sid string) string {
	return m.conf.KeyPrefix + sid
}

// Create 生成会话并写入 Redis；返回 sid（雪花ID）
func (m *SessionManager) Create(ctx context.Context, rec SessionRecord) (string, error) {
	if rec.UserID == "" {
		return "", errors.New("userID empty")
	}
	sid := ids.GenerateString()
	rec.SessionID = sid
	if rec.LoginAt.IsZero() {
		rec.LoginAt = time.Now()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(err, "marshal session")
	}
	if err := m.rdb.Set(ctx, m.key(sid), b, m.conf.TTL).Err(); err != nil {
		return "", errors.Wrap(err, "set session")
	}
	return sid, nil
}

// Get 按 sid 查会话；不存在返回 ErrSessionNotFound
func (m *SessionManager) Get(ctx context.Context, sid string) (*SessionRecord, error) {
	b, err := m.rdb.Get(ctx, m.key(sid)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}
	var rec SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Wrap(err, "unmarshal session")
	}
	return &rec, nil
}

// Delete 登出；幂等
func (m *SessionManager) Delete(ctx context.Context, sid string) error {
	return m.rdb.Del(ctx, m.key(sid)).Err()
}

// Touch 滑动续期
func (m *SessionManager) Touch(ctx context.Context, sid string) error {
	ok, err := m.rdb.Expire(ctx, m.key(sid), m.conf.TTL).Result()
	if err != nil {
		return errors.Wrap(err, "touch session")
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}
