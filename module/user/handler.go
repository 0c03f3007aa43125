package user

import (
	"net/http"
	"strconv"

	"JBProject/global"
	"JBProject/logger"
	midsec "JBProject/middleware/security"
	usersvc "JBProject/module/user/service"
	"JBProject/service/storage"
	errs "JBProject/tools/errs"
	security "JBProject/tools/security"

	"github.com/gin-gonic/gin"
)

type registerReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandlerRegister POST /api/register
func HandlerRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	id, err := usersvc.Create(c.Request.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		if errs.ErrRecordExist.Is(err) {
			c.JSON(http.StatusConflict, errs.ErrRecordExist)
			return
		}
		logger.Errorf("[User] register err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// HandlerLogin POST /api/login
// 登录成功：写 Redis 会话 + 下发签名 cookie（WS 握手用）+ 返回 JWT（REST 用）
func HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	u, err := usersvc.VerifyLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errs.ErrPassword.Is(err) {
			c.JSON(http.StatusUnauthorized, errs.ErrPassword)
			return
		}
		logger.Errorf("[User] login err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}

	userID := strconv.FormatInt(u.ID, 10)
	sid, err := storage.GetSessionManager().Create(c.Request.Context(), storage.SessionRecord{
		UserID:    userID,
		Role:      u.Role,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		logger.Errorf("[User] create session err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}

	signed := security.SignCookie(sid, global.GetCookieSecret())
	c.SetCookie(global.Global.CookieName, signed,
		int(global.Global.SessionTTL.Seconds()), "/", "", false, true)

	token, _, err := security.Generate(security.DefaultOptions(global.GetJwtSecret()), userID, u.Role)
	if err != nil {
		logger.Errorf("[User] issue token err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":   u.ID,
			"name": u.Name,
			"role": u.Role,
		},
	})
}

// HandlerLogout POST /api/logout 删除会话并清 cookie；幂等
func HandlerLogout(c *gin.Context) {
	if raw, err := c.Cookie(global.Global.CookieName); err == nil {
		if sid, ok := security.UnsignCookie(raw, global.GetCookieSecret()); ok {
			_ = storage.GetSessionManager().Delete(c.Request.Context(), sid)
		}
	}
	c.SetCookie(global.Global.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandlerCheck POST /api/check 令牌有效性探测（走 auth 中间件）
func HandlerCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userId": midsec.UserID(c),
		"role":   midsec.Role(c),
	})
}
