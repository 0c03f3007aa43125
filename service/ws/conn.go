package ws

import (
	"net"
	"sync"
	"time"

	"JBProject/logger"

	"github.com/gorilla/websocket"
)

// ===== 连接状态机 =====

// 认证状态：首帧 auth 校验期间处于 StatePending，
// 校验结果回来之前到达的其他帧一律拒绝（防止并发auth竞态）。
type ConnState int32

const (
	StateUnauth ConnState = iota
	StatePending
	StateAuthed
)

// 应用层 close code（4xxx 自定义区）
const (
	CloseUnauthorized = 4401 // 凭证缺失/伪造/会话不存在，对外不区分
	CloseForbidden    = 4403 // 声称身份与会话记录不符
)

// ===== 数据结构 =====

// WsConn 一条长连接的进程内句柄；写统一走 sendCh + writePump，
// 读循环只在 HandleWS 里跑。
type WsConn struct {
	ConnID string // 雪花ID

	mu     sync.Mutex
	state  ConnState
	userID string
	alive  bool

	sock   *websocket.Conn // 单测时可为 nil
	remote net.Addr
	cred   string // 握手时带上来的会话 cookie 原值

	createdAt time.Time
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(connID, cred string, sock *websocket.Conn, sendBuffer int) *WsConn {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	c := &WsConn{
		ConnID:    connID,
		state:     StateUnauth,
		alive:     true,
		sock:      sock,
		cred:      cred,
		createdAt: time.Now(),
		sendCh:    make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
	if sock != nil {
		c.remote = sock.RemoteAddr()
	}
	return c
}

func (c *WsConn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *WsConn) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// UserID 已认证返回用户ID，否则空串
func (c *WsConn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// bind 认证通过后绑定身份；只会在校验成功路径上调用一次
func (c *WsConn) bind(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.state = StateAuthed
	c.mu.Unlock()
}

func (c *WsConn) Credential() string { return c.cred }

// ===== 心跳标志 =====

func (c *WsConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *WsConn) markAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

func (c *WsConn) markDead() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

// ===== 发送 =====

// enqueue 非阻塞入队；队列满直接丢（尽力投递，不排队不重试）
func (c *WsConn) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		logger.Warnf("[WS] send queue full, drop connID=%s user=%s", c.ConnID, c.UserID())
		return false
	}
}

// Ping 发送底层 ping 控制帧；WriteControl 并发安全，可由监控协程直接调
func (c *WsConn) Ping(deadline time.Time) error {
	if c.sock == nil {
		return nil
	}
	return c.sock.WriteControl(websocket.PingMessage, []byte("ping"), deadline)
}

// Close 幂等关闭：发 close 帧、断 socket、通知 writePump 退出。
// 强杀可能与 writePump 的在途写并发，gorilla 只允许一个写者，
// 所以 close 帧必须走 WriteControl。
// 注册表清理由调用方负责（读循环兜底，监控强杀也会走同一路径）。
func (c *WsConn) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		if c.sock != nil {
			_ = c.sock.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason),
				time.Now().Add(2*time.Second))
			_ = c.sock.Close()
		}
		close(c.done)
	})
}

// writePump 每连接唯一写协程；业务 JSON 事件统一从这里出
func (c *WsConn) writePump(writeWait time.Duration) {
	if c.sock == nil {
		return
	}
	for {
		select {
		case data, ok := <-c.sendCh:
			if !ok {
				return
			}
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Infof("[WS] write err connID=%s user=%s err=%v", c.ConnID, c.UserID(), err)
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-c.done:
			return
		}
	}
}
