package main

import (
	"fmt"
	"log"

	"JBProject/global"
	mid "JBProject/middleware"
	"JBProject/module/message"
	"JBProject/module/notification"
	notifsvc "JBProject/module/notification/service"
	"JBProject/module/user"
	"JBProject/service/storage"
	"JBProject/service/ws"

	"github.com/gin-gonic/gin"
)

func main() {

	// 基础设施：ID生成 / Redis / Mongo / Postgres
	global.ConfigAll()

	// 会话存储（Redis）；网关核心只读它
	sessions := storage.InitSessionManager(storage.SessionConfig{
		NodeID: global.Global.NodeID,
		TTL:    global.Global.SessionTTL,
	})

	// WS 网关（注册表/校验器/分发器/心跳监控的组合根）
	gw := ws.NewServer(ws.ServerConf{
		CookieName:   global.Global.CookieName,
		CookieSecret: global.GetCookieSecret(),
		PingInterval: global.Global.PingInterval,
		WriteWait:    global.Global.WriteWait,
		SendBuffer:   global.Global.SendBuffer,
		MaxPerUser:   global.Global.MaxPerUser,
	}, sessions)
	defer gw.Close()

	// 业务模块拿 Dispatcher 做落库后推送
	notifsvc.InitService(gw.Dispatcher())

	// HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", gw.HandleWS)

	mid.POST(r, "/api/register", user.HandlerRegister, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/api/login", user.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/api/logout", user.HandlerLogout, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/api/check", user.HandlerCheck, mid.RouteOpt{IsAuth: true})

	mid.POST(r, "/api/notifications", notification.HandlerCreate, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/notifications", notification.HandlerList, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/notifications/unread_count", notification.HandlerUnreadCount, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/notifications/:id/read", notification.HandlerMarkRead, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/notifications/read_all", notification.HandlerMarkAllRead, mid.RouteOpt{IsAuth: true})

	mid.POST(r, "/api/messages", message.HandlerSend, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/messages/:peer", message.HandlerHistory, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/messages/read", message.HandlerMarkRead, mid.RouteOpt{IsAuth: true})

	addr := fmt.Sprintf(":%d", global.Global.Port)
	log.Printf("[HTTP] Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
