package ws

import (
	"context"
	"time"

	"JBProject/logger"
	decode "JBProject/tools/decode"
)

// Dispatcher 帧路由：入站帧按 type 分发，出站统一按「用户的全部在线连接」
// 扇出。投递语义是 at-most-once 尽力送达——目标离线直接丢，持久化归
// 业务存储层管，这里不排队不重试。
type Dispatcher struct {
	reg         *Registry
	validator   *Validator
	authTimeout time.Duration
}

func NewDispatcher(reg *Registry, validator *Validator, authTimeout time.Duration) *Dispatcher {
	if authTimeout <= 0 {
		authTimeout = 5 * time.Second
	}
	return &Dispatcher{reg: reg, validator: validator, authTimeout: authTimeout}
}

// HandleFrame 读循环入口；任何帧的处理失败只影响这条连接自己
func (d *Dispatcher) HandleFrame(c *WsConn, f *Frame) {
	if f.Type == FrameAuth {
		d.handleAuth(c, f)
		return
	}

	// 认证前（含 pending 悬挂期）其余帧一律拒绝
	if c.State() != StateAuthed {
		c.enqueue(BuildErrorEvent("not authenticated"))
		return
	}

	switch f.Type {
	case FrameMessage:
		d.handleChat(c, f)
	case FrameNotification:
		d.handleNotify(c, f)
	case FrameTyping:
		d.handleTyping(c, f)
	case FrameMarkRead:
		d.handleMarkRead(c, f)
	default:
		c.enqueue(BuildErrorEvent("unknown message type: " + f.Type))
	}
}

// ===== auth =====

func (d *Dispatcher) handleAuth(c *WsConn, f *Frame) {
	switch c.State() {
	case StateAuthed:
		// 已认证连接的重复 auth 只重发 ack，不再校验
		c.enqueue(BuildAuthSuccess(c.UserID()))
		return
	case StatePending:
		// 首次校验还在途，丢弃并发的第二个 auth
		return
	}

	ap, err := decode.DecodeMap[AuthPayload](f.Fields)
	if err != nil || ap.UserID == "" {
		c.enqueue(BuildErrorEvent("auth requires userId"))
		return
	}

	c.setState(StatePending)

	ctx, cancel := context.WithTimeout(context.Background(), d.authTimeout)
	defer cancel()
	reason, verr := d.validator.Validate(ctx, c.Credential(), ap.UserID)
	if verr != nil {
		logger.Errorf("[Auth] session store error connID=%s err=%v", c.ConnID, verr)
	}
	if reason != ReasonOK {
		logger.Infof("[Auth] reject connID=%s claimed=%s reason=%s", c.ConnID, ap.UserID, reason)
		d.reg.Remove(c)
		c.Close(reason.CloseCode(), reason.CloseText())
		return
	}

	c.bind(ap.UserID)
	if err := d.reg.Bind(ap.UserID, c); err != nil {
		logger.Warnf("[Auth] bind err connID=%s user=%s err=%v", c.ConnID, ap.UserID, err)
		d.reg.Remove(c)
		c.Close(CloseUnauthorized, "unauthorized")
		return
	}

	logger.Infof("[Auth] ok connID=%s user=%s", c.ConnID, ap.UserID)
	c.enqueue(BuildAuthSuccess(ap.UserID))
}

// ===== message（聊天中转） =====

func (d *Dispatcher) handleChat(c *WsConn, f *Frame) {
	p, err := decode.DecodeMap[ChatPayload](f.Fields)
	if err != nil || p.ReceiverID == "" || p.Data == nil {
		c.enqueue(BuildErrorEvent("message requires receiverId and data"))
		return
	}

	d.fanout(p.ReceiverID, BuildNewMessage(c.UserID(), p.Data))

	// 消息默认已由业务层落库，接收方在不在线都要给发送方 ack
	c.enqueue(BuildMessageSent(p.ReceiverID, p.Data))
}

// ===== notification（连接间转发） =====

func (d *Dispatcher) handleNotify(c *WsConn, f *Frame) {
	p, err := decode.DecodeMap[NotifyPayload](f.Fields)
	if err != nil || p.TargetUserID == "" || p.Data == nil {
		c.enqueue(BuildErrorEvent("notification requires targetUserId and data"))
		return
	}
	// 目标离线静默丢弃
	d.fanout(p.TargetUserID, BuildNewNotification(p.Data))
}

// ===== typing =====

func (d *Dispatcher) handleTyping(c *WsConn, f *Frame) {
	p, err := decode.DecodeMap[TypingPayload](f.Fields)
	if err != nil || p.ReceiverID == "" {
		c.enqueue(BuildErrorEvent("typing requires receiverId"))
		return
	}
	d.fanout(p.ReceiverID, BuildUserTyping(c.UserID(), p.IsTyping))
}

// ===== mark_read =====

func (d *Dispatcher) handleMarkRead(c *WsConn, f *Frame) {
	p, err := decode.DecodeMap[MarkReadPayload](f.Fields)
	if err != nil || p.SenderID == "" {
		c.enqueue(BuildErrorEvent("mark_read requires senderId"))
		return
	}
	// 通知原发送方：对方已读
	d.fanout(p.SenderID, BuildMessagesRead(c.UserID()))
}

// ===== 服务端主动推送 =====

// PushNotification 业务侧唯一集成点：请求处理代码落库之后调用，
// 把通知实时推给该用户的所有在线连接。离线是正常态，返回 0。
func (d *Dispatcher) PushNotification(userID string, n *Notification) int {
	if userID == "" || n == nil {
		return 0
	}
	return d.fanout(userID, BuildNewNotification(n))
}

// fanout 序列化一次，逐连接入队；每条在线连接恰好收到一份
func (d *Dispatcher) fanout(userID string, payload []byte) int {
	conns := d.reg.Connections(userID)
	n := 0
	for _, c := range conns {
		if c.enqueue(payload) {
			n++
		}
	}
	return n
}
