package ws

import (
	"testing"
	"time"
)

// 两轮巡检没回 pong 的连接要被摘掉；pong 续命的留下
func TestMonitorSweepEvictsSilentConn(t *testing.T) {
	reg := NewRegistry(RegistryConf{})
	m := NewMonitor(MonitorConf{PingInterval: time.Hour}, reg) // loop 不启动，手动扫

	silent := newTestConn("c-silent")
	noisy := newTestConn("c-noisy")
	_ = reg.Add(silent)
	_ = reg.Add(noisy)

	// 第一轮：都活着，置 false 并发 ping
	m.sweepOnce()
	if reg.Len() != 2 {
		t.Fatalf("first sweep evicted: len=%d", reg.Len())
	}

	// noisy 回了 pong，silent 没回
	noisy.markAlive()

	m.sweepOnce()
	if reg.Len() != 1 {
		t.Fatalf("second sweep len=%d, want 1", reg.Len())
	}
	select {
	case <-silent.done:
	default:
		t.Fatalf("silent conn not closed")
	}
	select {
	case <-noisy.done:
		t.Fatalf("noisy conn closed")
	default:
	}
}

// ping 截止时间从注入时钟算
func TestMonitorPingDeadlineUsesClock(t *testing.T) {
	reg := NewRegistry(RegistryConf{})
	calls := 0
	m := NewMonitor(MonitorConf{
		PingInterval: time.Hour,
		Clock: func() time.Time {
			calls++
			return time.Unix(1_700_000_000, 0)
		},
	}, reg)

	c := newTestConn("c1")
	_ = reg.Add(c)
	m.sweepOnce()

	if calls == 0 {
		t.Fatalf("monitor clock never read")
	}
}

func TestMonitorStopIdempotent(t *testing.T) {
	reg := NewRegistry(RegistryConf{})
	m := NewMonitor(MonitorConf{PingInterval: 10 * time.Millisecond}, reg)
	m.Start()
	m.Stop()
	m.Stop()
}
