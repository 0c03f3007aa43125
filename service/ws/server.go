package ws

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"JBProject/logger"
	"JBProject/tools/ids"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ===== 配置 =====

type ServerConf struct {
	CookieName   string // 会话 cookie 名（默认 jb.sid）
	CookieSecret []byte

	PingInterval time.Duration
	WriteWait    time.Duration
	AuthTimeout  time.Duration // 会话查询超时
	SendBuffer   int
	MaxPerUser   int

	Clock func() time.Time
}

func (c *ServerConf) norm() {
	if c.CookieName == "" {
		c.CookieName = "jb.sid"
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = 5 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

var upgraded = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server WS 端点组合根：注册表、校验器、分发器、心跳监控在这里装配，
// 全部按引用传递，不走包级全局。
type Server struct {
	conf ServerConf
	reg  *Registry
	disp *Dispatcher
	mon  *Monitor
}

func NewServer(conf ServerConf, store SessionStore) *Server {
	conf.norm()
	reg := NewRegistry(RegistryConf{MaxPerUser: conf.MaxPerUser, Clock: conf.Clock})
	validator := NewValidator(conf.CookieSecret, store)
	disp := NewDispatcher(reg, validator, conf.AuthTimeout)
	mon := NewMonitor(MonitorConf{
		PingInterval: conf.PingInterval,
		WriteWait:    conf.WriteWait,
		Clock:        conf.Clock,
	}, reg)
	mon.Start()

	return &Server{conf: conf, reg: reg, disp: disp, mon: mon}
}

// Dispatcher 暴露给业务模块（通知/消息落库后推送）
func (s *Server) Dispatcher() *Dispatcher { return s.disp }

// Registry 暴露给统计/单测
func (s *Server) Registry() *Registry { return s.reg }

func (s *Server) Close() {
	s.mon.Stop()
	s.reg.Close()
}

// HandleWS ===== WebSocket 入口 =====
// 握手时捕获会话 cookie，身份要等首个 auth 帧校验之后才算数。
func (s *Server) HandleWS(c *gin.Context) {
	wsock, err := upgraded.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 常见：非 WebSocket 请求/握手失败
		logger.Infof("[WS] upgrade error: %v", err)
		return
	}

	cred := ""
	if ck, cerr := c.Request.Cookie(s.conf.CookieName); cerr == nil {
		cred = ck.Value
		// 浏览器端 cookie 可能是 URL 编码过的（s%3A...）
		if strings.Contains(cred, "%") {
			if u, uerr := url.QueryUnescape(cred); uerr == nil {
				cred = u
			}
		}
	}

	conn := newConn(ids.GenerateString(), cred, wsock, s.conf.SendBuffer)
	if err := s.reg.Add(conn); err != nil {
		logger.Warnf("[WS] track conn err: %v", err)
		_ = wsock.Close()
		return
	}

	wsock.SetReadLimit(1 << 20) // 1MB
	s.mon.AttachPong(conn)
	go conn.writePump(s.conf.WriteWait)

	logger.Infof("[WS] connected connID=%s remote=%s", conn.ConnID, wsock.RemoteAddr())

	// ---- 读循环：只读不写；出错即退出（写协程由 done 收尾） ----
	for {
		mt, data, rerr := wsock.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed connID=%s err=%v", conn.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout connID=%s err=%v", conn.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err connID=%s err=%v", conn.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		f, perr := ParseFrame(data)
		if perr != nil {
			// 只影响发送方自己，连接保持
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] bad frame connID=%s err=%v sample=%q", conn.ConnID, perr, sample)
			conn.enqueue(BuildErrorEvent("malformed frame: " + perr.Error()))
			continue
		}

		s.disp.HandleFrame(conn, f)
	}

	// ---- 退出阶段：注册表清理幂等，监控强杀的连接再走一遍也无妨 ----
	s.reg.Remove(conn)
	conn.Close(websocket.CloseNormalClosure, "")
	logger.Infof("[WS] closed connID=%s user=%s", conn.ConnID, conn.UserID())
}
