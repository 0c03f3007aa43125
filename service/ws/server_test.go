package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	security "JBProject/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestGateway(t *testing.T, store SessionStore, conf ServerConf) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conf.CookieSecret = testSecret
	gw := NewServer(conf, store)
	r := gin.New()
	r.GET("/ws", gw.HandleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ts.Close()
		gw.Close()
	})
	return gw, ts
}

func dialWS(t *testing.T, ts *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	h := http.Header{}
	if sid != "" {
		// 浏览器会对 cookie 值做 URL 编码，这里照样编码走一遍解码路径
		h.Set("Cookie", "jb.sid="+url.QueryEscape(security.SignCookie(sid, testSecret)))
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, h)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("event json: %v", err)
	}
	return m
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestServerAuthRoundtrip(t *testing.T) {
	gw, ts := newTestGateway(t, storeFor("u1"), ServerConf{})
	conn := dialWS(t, ts, "sid-u1")

	sendFrame(t, conn, map[string]any{"type": "auth", "userId": "u1"})
	evt := readEvent(t, conn)
	if evt["type"] != EvtAuthSuccess || evt["userId"] != "u1" {
		t.Fatalf("auth event = %v", evt)
	}
	if got := len(gw.Registry().Connections("u1")); got != 1 {
		t.Fatalf("u1 conns = %d", got)
	}
}

func TestServerSpoofGetsForbiddenClose(t *testing.T) {
	gw, ts := newTestGateway(t, storeFor("A"), ServerConf{})
	conn := dialWS(t, ts, "sid-A")

	sendFrame(t, conn, map[string]any{"type": "auth", "userId": "B"})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("spoofed conn not closed")
	}
	ce, ok := err.(*websocket.CloseError)
	if !ok || ce.Code != CloseForbidden {
		t.Fatalf("close err = %v, want code %d", err, CloseForbidden)
	}
	if got := len(gw.Registry().Connections("B")); got != 0 {
		t.Fatalf("spoofed conn reached B's set")
	}
}

func TestServerNoCookieGetsUnauthorizedClose(t *testing.T) {
	_, ts := newTestGateway(t, storeFor("u1"), ServerConf{})
	conn := dialWS(t, ts, "")

	sendFrame(t, conn, map[string]any{"type": "auth", "userId": "u1"})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	ce, ok := err.(*websocket.CloseError)
	if !ok || ce.Code != CloseUnauthorized {
		t.Fatalf("close err = %v, want code %d", err, CloseUnauthorized)
	}
}

// 坏帧只回 error 事件，连接保持，后续帧照常处理
func TestServerMalformedFrameKeepsConn(t *testing.T) {
	_, ts := newTestGateway(t, storeFor("u1"), ServerConf{})
	conn := dialWS(t, ts, "sid-u1")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if evt := readEvent(t, conn); evt["type"] != EvtError {
		t.Fatalf("want error event, got %v", evt)
	}

	sendFrame(t, conn, map[string]any{"type": "auth", "userId": "u1"})
	if evt := readEvent(t, conn); evt["type"] != EvtAuthSuccess {
		t.Fatalf("auth after bad frame = %v", evt)
	}
}

// 不回 pong 的客户端在两个心跳周期内被摘掉
func TestServerLivenessEviction(t *testing.T) {
	gw, ts := newTestGateway(t, storeFor("u1"), ServerConf{PingInterval: 40 * time.Millisecond})
	conn := dialWS(t, ts, "sid-u1")

	sendFrame(t, conn, map[string]any{"type": "auth", "userId": "u1"})
	if evt := readEvent(t, conn); evt["type"] != EvtAuthSuccess {
		t.Fatalf("auth = %v", evt)
	}

	// 不再 ReadMessage，pong 自动回包不会发生，等监控判死
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(gw.Registry().Connections("u1")) == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dead conn not evicted")
}

func TestServerPushReachesLiveSocket(t *testing.T) {
	gw, ts := newTestGateway(t, storeFor("u1"), ServerConf{})
	conn := dialWS(t, ts, "sid-u1")

	sendFrame(t, conn, map[string]any{"type": "auth", "userId": "u1"})
	if evt := readEvent(t, conn); evt["type"] != EvtAuthSuccess {
		t.Fatalf("auth = %v", evt)
	}

	n := gw.Dispatcher().PushNotification("u1", &Notification{
		UserID: "u1", Type: "application", Title: "状态更新", Message: "你的投递进入面试",
	})
	if n != 1 {
		t.Fatalf("pushed = %d", n)
	}
	evt := readEvent(t, conn)
	if evt["type"] != EvtNewNotification {
		t.Fatalf("push event = %v", evt)
	}
}

func TestServerChatRelayBetweenSockets(t *testing.T) {
	_, ts := newTestGateway(t, storeFor("u1", "u2"), ServerConf{})

	c1 := dialWS(t, ts, "sid-u1")
	sendFrame(t, c1, map[string]any{"type": "auth", "userId": "u1"})
	if evt := readEvent(t, c1); evt["type"] != EvtAuthSuccess {
		t.Fatalf("u1 auth = %v", evt)
	}

	c2 := dialWS(t, ts, "sid-u2")
	sendFrame(t, c2, map[string]any{"type": "auth", "userId": "u2"})
	if evt := readEvent(t, c2); evt["type"] != EvtAuthSuccess {
		t.Fatalf("u2 auth = %v", evt)
	}

	sendFrame(t, c1, map[string]any{
		"type": "message", "receiverId": "u2",
		"data": map[string]any{"content": "你好"},
	})
	if evt := readEvent(t, c2); evt["type"] != EvtNewMessage || evt["senderId"] != "u1" {
		t.Fatalf("receiver event = %v", evt)
	}
	if evt := readEvent(t, c1); evt["type"] != EvtMessageSent {
		t.Fatalf("sender ack = %v", evt)
	}
}
