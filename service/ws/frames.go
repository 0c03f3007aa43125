package ws

import (
	"encoding/json"
	"fmt"
)

// ===== 入站帧 =====

// 入站统一是 JSON 对象 + type 判别字段；各类型的负载用
// decode.DecodeMap 解到封闭的类型集合，缺字段在解码期暴露。
const (
	FrameAuth         = "auth"
	FrameMessage      = "message"
	FrameNotification = "notification"
	FrameTyping       = "typing"
	FrameMarkRead     = "mark_read"
)

type Frame struct {
	Type   string
	Fields map[string]any // 除 type 外的原始字段
}

// ParseFrame 解析入站帧；解析失败只影响发送方自己（回 error 事件）
func ParseFrame(raw []byte) (*Frame, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	t, _ := m["type"].(string)
	if t == "" {
		return nil, fmt.Errorf("missing type field")
	}
	return &Frame{Type: t, Fields: m}, nil
}

// ===== 各类型负载 =====

type AuthPayload struct {
	UserID string `json:"userId"`
}

type ChatPayload struct {
	ReceiverID string         `json:"receiverId"`
	Data       map[string]any `json:"data"`
}

type NotifyPayload struct {
	TargetUserID string         `json:"targetUserId"`
	Data         map[string]any `json:"data"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

type MarkReadPayload struct {
	SenderID string `json:"senderId"`
}

// ===== 出站事件 =====

// Notification 投递载荷；由请求处理层构造（落库后）交给 Dispatcher，
// 这里只负责路由，不保证持久化。
type Notification struct {
	UserID  string `json:"userId"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	LinkURL string `json:"linkUrl,omitempty"`
}

const (
	EvtAuthSuccess     = "auth_success"
	EvtNewMessage      = "new_message"
	EvtMessageSent     = "message_sent"
	EvtNewNotification = "new_notification"
	EvtUserTyping      = "user_typing"
	EvtMessagesRead    = "messages_read"
	EvtError           = "error"
)

func buildEvent(typ string, fields map[string]any) []byte {
	m := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m["type"] = typ
	b, _ := json.Marshal(m)
	return b
}

func BuildAuthSuccess(userID string) []byte {
	return buildEvent(EvtAuthSuccess, map[string]any{"userId": userID})
}

func BuildNewMessage(senderID string, data map[string]any) []byte {
	return buildEvent(EvtNewMessage, map[string]any{"senderId": senderID, "data": data})
}

func BuildMessageSent(receiverID string, data map[string]any) []byte {
	return buildEvent(EvtMessageSent, map[string]any{"receiverId": receiverID, "data": data})
}

func BuildNewNotification(data any) []byte {
	return buildEvent(EvtNewNotification, map[string]any{"notification": data})
}

func BuildUserTyping(userID string, isTyping bool) []byte {
	return buildEvent(EvtUserTyping, map[string]any{"userId": userID, "isTyping": isTyping})
}

func BuildMessagesRead(readerID string) []byte {
	return buildEvent(EvtMessagesRead, map[string]any{"userId": readerID})
}

func BuildErrorEvent(msg string) []byte {
	return buildEvent(EvtError, map[string]any{"message": msg})
}
