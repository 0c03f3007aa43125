package ws

import (
	"errors"
	"sync"
	"time"

	"JBProject/logger"

	"github.com/gorilla/websocket"
)

// ===== 配置 =====

type RegistryConf struct {
	MaxPerUser int              // 每用户最大连接数（<=0 不限制，超限淘汰最老）
	Clock      func() time.Time // 可注入时钟（单测用）；nil => time.Now
}

func (c *RegistryConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// ===== 注册表 =====

// Registry 进程内连接索引。持有方是 Server（组合根），
// Dispatcher / Monitor 都拿引用，不做包级全局。
//
// byConn 记录所有被跟踪连接（含未认证）；byUser 只收已认证连接。
// 不变式：一条连接同一时刻至多出现在一个用户桶里；桶空即删，不留空集。
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*WsConn
	byUser map[string]map[string]*WsConn

	conf RegistryConf
}

func NewRegistry(conf RegistryConf) *Registry {
	conf.norm()
	return &Registry{
		byConn: make(map[string]*WsConn),
		byUser: make(map[string]map[string]*WsConn),
		conf:   conf,
	}
}

// Add 握手成功即登记（此时还未认证，monitor 也要对它做心跳）
func (r *Registry) Add(c *WsConn) error {
	if c == nil || c.ConnID == "" {
		return errors.New("conn/connID empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byConn[c.ConnID]; exists {
		return errors.New("connID exists")
	}
	c.createdAt = r.conf.Clock() // 淘汰排序用注册表时钟，单测可注入
	r.byConn[c.ConnID] = c
	return nil
}

// Bind 认证通过后挂到用户桶；同一连接重复 Bind 幂等。
// 一条连接不允许换绑到别的用户。
func (r *Registry) Bind(userID string, c *WsConn) error {
	if userID == "" || c == nil {
		return errors.New("userID/conn empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, tracked := r.byConn[c.ConnID]; !tracked {
		return errors.New("conn not tracked")
	}
	if mm := r.byUser[userID]; mm != nil {
		if _, dup := mm[c.ConnID]; dup {
			return nil // 幂等
		}
	}
	for uid, mm := range r.byUser {
		if uid == userID {
			continue
		}
		if _, ok := mm[c.ConnID]; ok {
			return errors.New("conn bound to another user")
		}
	}

	if r.conf.MaxPerUser > 0 {
		r.ensureRoomLocked(userID)
	}

	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]*WsConn)
	}
	r.byUser[userID][c.ConnID] = c
	return nil
}

// Remove 连接终态（对端关闭/读错误/心跳强杀）统一走这里；幂等，
// 多个事件回调重复调用不会重复计数也不会 panic。
func (r *Registry) Remove(c *WsConn) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byConn, c.ConnID)

	if uid := c.UserID(); uid != "" {
		if mm := r.byUser[uid]; mm != nil {
			delete(mm, c.ConnID)
			if len(mm) == 0 {
				delete(r.byUser, uid) // 不留空桶
			}
		}
	}
}

// Connections 用户当前所有在线连接；离线返回空切片（正常态，不是错误）
func (r *Registry) Connections(userID string) []*WsConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mm := r.byUser[userID]
	out := make([]*WsConn, 0, len(mm))
	for _, c := range mm {
		out = append(out, c)
	}
	return out
}

// All 所有被跟踪连接（monitor 扫描用）
func (r *Registry) All() []*WsConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*WsConn, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

// OnlineUsers 当前有连接的用户数（调试/统计）
func (r *Registry) OnlineUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// Close 关掉所有连接并清空索引（进程退出用）
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*WsConn, 0, len(r.byConn))
	for _, c := range r.byConn {
		conns = append(conns, c)
	}
	r.byConn = make(map[string]*WsConn)
	r.byUser = make(map[string]map[string]*WsConn)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

// 持锁调用：超限先淘汰最老的一条（多端登录挤下线）
func (r *Registry) ensureRoomLocked(userID string) {
	mm := r.byUser[userID]
	if len(mm) < r.conf.MaxPerUser {
		return
	}
	var oldest *WsConn
	for _, w := range mm {
		if oldest == nil || w.createdAt.Before(oldest.createdAt) {
			oldest = w
		}
	}
	if oldest != nil {
		delete(mm, oldest.ConnID)
		delete(r.byConn, oldest.ConnID)
		logger.Infof("[Registry] evict oldest user=%s conn=%s", userID, oldest.ConnID)
		go oldest.Close(websocket.CloseNormalClosure, "too many connections") // 解锁后关闭
	}
}
