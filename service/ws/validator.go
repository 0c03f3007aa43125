package ws

import (
	"context"

	"JBProject/service/storage"
	security "JBProject/tools/security"

	pkgerr "github.com/pkg/errors"
)

// SessionStore 外部会话存储的只读视图；网关只查不写。
// 生产实现是 storage.SessionManager（Redis），单测注入假实现。
type SessionStore interface {
	Get(ctx context.Context, sid string) (*storage.SessionRecord, error)
}

// ===== 拒绝原因 =====

type Reason int

const (
	ReasonOK Reason = iota
	ReasonNoCredential  // 握手没带 cookie
	ReasonBadSignature  // 签名校验失败（伪造/密钥不符）
	ReasonNoSession     // 会话不存在（过期/登出/假sid）
	ReasonUserMismatch  // 声称的 userId 与会话记录不符
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonNoCredential:
		return "no credential"
	case ReasonBadSignature:
		return "bad signature"
	case ReasonNoSession:
		return "no session"
	case ReasonUserMismatch:
		return "user mismatch"
	}
	return "unknown"
}

// CloseCode 对外的关闭码。缺失/伪造/无会话统一 4401，不泄露具体原因；
// 身份不符给 4403。
func (r Reason) CloseCode() int {
	if r == ReasonUserMismatch {
		return CloseForbidden
	}
	return CloseUnauthorized
}

// CloseText 对外文案；故意笼统
func (r Reason) CloseText() string {
	if r == ReasonUserMismatch {
		return "forbidden"
	}
	return "unauthorized"
}

// ===== 校验器 =====

// Validator 把「握手凭证 + 客户端声称的 userId」换成可信身份。
// 客户端给的 userId 在与服务端会话记录核对之前一律不可信，
// 任何一步失败连接都不会进入用户注册表。
type Validator struct {
	secret []byte
	store  SessionStore
}

func NewValidator(secret []byte, store SessionStore) *Validator {
	return &Validator{secret: secret, store: store}
}

// Validate 每条连接只执行一次（首个 auth 帧）。
// err 仅在会话存储本身故障时非 nil；无论哪种失败调用方都应关连接。
func (v *Validator) Validate(ctx context.Context, credential, claimedUserID string) (Reason, error) {
	if credential == "" {
		return ReasonNoCredential, nil
	}
	sid, ok := security.UnsignCookie(credential, v.secret)
	if !ok {
		return ReasonBadSignature, nil
	}

	rec, err := v.store.Get(ctx, sid)
	if err != nil {
		if pkgerr.Is(err, storage.ErrSessionNotFound) {
			return ReasonNoSession, nil
		}
		return ReasonNoSession, pkgerr.Wrap(err, "session lookup")
	}
	if rec == nil || rec.UserID == "" {
		return ReasonNoSession, nil
	}
	if rec.UserID != claimedUserID {
		return ReasonUserMismatch, nil
	}
	return ReasonOK, nil
}
