package ws

import (
	"sync"
	"time"

	"JBProject/logger"

	"github.com/gorilla/websocket"
)

// ===== 配置 =====

type MonitorConf struct {
	PingInterval time.Duration    // 心跳周期（默认 30s；两个周期无 pong 即判死）
	WriteWait    time.Duration    // ping 控制帧写超时
	Clock        func() time.Time // 可注入时钟（单测用）
}

func (c *MonitorConf) norm() {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Monitor 心跳巡检：每个周期先清掉上一轮没回 pong 的连接，再给活口发 ping。
// 被清掉的是网络层静默死亡（客户端崩溃/断网），属预期清理，不算业务错误；
// 客户端重连后重新走认证。
type Monitor struct {
	conf MonitorConf
	reg  *Registry

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewMonitor(conf MonitorConf, reg *Registry) *Monitor {
	conf.norm()
	return &Monitor{
		conf:   conf,
		reg:    reg,
		stopCh: make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// AttachPong 握手成功后挂 pong 回调；收到 pong 即续命
func (m *Monitor) AttachPong(c *WsConn) {
	if c == nil || c.sock == nil {
		return
	}
	c.sock.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})
}

func (m *Monitor) loop() {
	t := time.NewTicker(m.conf.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			m.sweepOnce()
		}
	}
}

// sweepOnce 一轮巡检；对每条连接：没回 pong 的强杀，活着的置 false 并发 ping
func (m *Monitor) sweepOnce() {
	for _, c := range m.reg.All() {
		if !c.Alive() {
			logger.Infof("[Monitor] heartbeat timeout, kick connID=%s user=%s", c.ConnID, c.UserID())
			m.reg.Remove(c)
			c.Close(websocket.CloseGoingAway, "heartbeat timeout")
			continue
		}
		c.markDead()
		if err := c.Ping(m.conf.Clock().Add(m.conf.WriteWait)); err != nil {
			// ping 都写不进去，直接清理
			logger.Infof("[Monitor] ping failed, kick connID=%s user=%s err=%v", c.ConnID, c.UserID(), err)
			m.reg.Remove(c)
			c.Close(websocket.CloseGoingAway, "ping failed")
		}
	}
}
