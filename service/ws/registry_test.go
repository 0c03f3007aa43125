package ws

import (
	"testing"
	"time"
)

func newTestConn(id string) *WsConn {
	return newConn(id, "", nil, 8)
}

func TestRegistryBindAndRemove(t *testing.T) {
	r := NewRegistry(RegistryConf{})

	c1 := newTestConn("c1")
	c2 := newTestConn("c2")
	if err := r.Add(c1); err != nil {
		t.Fatalf("add c1: %v", err)
	}
	if err := r.Add(c2); err != nil {
		t.Fatalf("add c2: %v", err)
	}

	c1.bind("u1")
	c2.bind("u1")
	if err := r.Bind("u1", c1); err != nil {
		t.Fatalf("bind c1: %v", err)
	}
	if err := r.Bind("u1", c2); err != nil {
		t.Fatalf("bind c2: %v", err)
	}

	if got := len(r.Connections("u1")); got != 2 {
		t.Fatalf("u1 conns = %d, want 2", got)
	}

	r.Remove(c1)
	conns := r.Connections("u1")
	if len(conns) != 1 {
		t.Fatalf("u1 conns after remove = %d, want 1", len(conns))
	}
	// 已注销的连接不能再出现在集合里
	for _, c := range conns {
		if c.ConnID == "c1" {
			t.Fatalf("removed conn still listed")
		}
	}

	r.Remove(c2)
	if r.OnlineUsers() != 0 {
		t.Fatalf("empty bucket persisted, online users = %d", r.OnlineUsers())
	}
	if got := r.Connections("u1"); got == nil || len(got) != 0 {
		t.Fatalf("offline lookup should be empty slice, got %v", got)
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry(RegistryConf{})
	c := newTestConn("c1")
	_ = r.Add(c)
	c.bind("u1")
	_ = r.Bind("u1", c)

	// close/error/强杀 多个回调重复清理，不 panic 不重复计数
	r.Remove(c)
	r.Remove(c)
	r.Remove(c)

	if r.Len() != 0 || r.OnlineUsers() != 0 {
		t.Fatalf("registry not clean: len=%d users=%d", r.Len(), r.OnlineUsers())
	}
}

func TestRegistryBindIdempotent(t *testing.T) {
	r := NewRegistry(RegistryConf{})
	c := newTestConn("c1")
	_ = r.Add(c)
	c.bind("u1")

	if err := r.Bind("u1", c); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := r.Bind("u1", c); err != nil {
		t.Fatalf("re-bind same conn should be idempotent: %v", err)
	}
	if got := len(r.Connections("u1")); got != 1 {
		t.Fatalf("u1 conns = %d, want 1", got)
	}
}

func TestRegistryRejectsRebindToOtherUser(t *testing.T) {
	r := NewRegistry(RegistryConf{})
	c := newTestConn("c1")
	_ = r.Add(c)
	c.bind("u1")
	_ = r.Bind("u1", c)

	if err := r.Bind("u2", c); err == nil {
		t.Fatalf("conn bound to two users")
	}
	if got := len(r.Connections("u2")); got != 0 {
		t.Fatalf("u2 conns = %d, want 0", got)
	}
}

func TestRegistryEvictOldest(t *testing.T) {
	r := NewRegistry(RegistryConf{MaxPerUser: 2})

	var conns []*WsConn
	for _, id := range []string{"c1", "c2", "c3"} {
		c := newTestConn(id)
		conns = append(conns, c)
		_ = r.Add(c)
		c.bind("u1")
		if err := r.Bind("u1", c); err != nil {
			t.Fatalf("bind %s: %v", id, err)
		}
	}

	got := r.Connections("u1")
	if len(got) != 2 {
		t.Fatalf("u1 conns = %d, want 2", len(got))
	}
	for _, c := range got {
		if c.ConnID == "c1" {
			t.Fatalf("oldest conn not evicted")
		}
	}
}

// 淘汰顺序看注册表时钟：注入倒着走的时钟，最后注册的反而是"最老"的邻居
func TestRegistryEvictUsesInjectedClock(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	stamps := []time.Time{base.Add(30 * time.Second), base.Add(20 * time.Second), base.Add(10 * time.Second)}
	i := 0
	r := NewRegistry(RegistryConf{MaxPerUser: 2, Clock: func() time.Time {
		ts := stamps[i%len(stamps)]
		i++
		return ts
	}})

	for _, id := range []string{"c1", "c2", "c3"} {
		c := newTestConn(id)
		_ = r.Add(c)
		c.bind("u1")
		if err := r.Bind("u1", c); err != nil {
			t.Fatalf("bind %s: %v", id, err)
		}
	}

	// c2 的注入时间戳最老（在 c1/c2 之间），应被挤下线
	for _, c := range r.Connections("u1") {
		if c.ConnID == "c2" {
			t.Fatalf("clock-oldest conn not evicted")
		}
	}
}
