package notification

import (
	"net/http"

	"JBProject/logger"
	midsec "JBProject/middleware/security"
	notifmodel "JBProject/module/notification/model"
	notifsvc "JBProject/module/notification/service"
	errs "JBProject/tools/errs"

	"github.com/gin-gonic/gin"
)

type createReq struct {
	UserID  string `json:"userId" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	LinkURL string `json:"linkUrl"`
}

// HandlerCreate POST /api/notifications
// 业务流程（投递状态变更、新申请人等）落库并实时推送；admin 也走这里
func HandlerCreate(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	n := &notifmodel.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		LinkURL: req.LinkURL,
	}
	if err := notifsvc.GetService().Create(c.Request.Context(), n); err != nil {
		logger.Errorf("[Notify] create err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, n)
}

// HandlerList GET /api/notifications
func HandlerList(c *gin.Context) {
	userID := midsec.UserID(c)
	list, err := notifsvc.GetService().List(c.Request.Context(), userID, 50)
	if err != nil {
		logger.Errorf("[Notify] list err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// HandlerUnreadCount GET /api/notifications/unread_count
func HandlerUnreadCount(c *gin.Context) {
	userID := midsec.UserID(c)
	n, err := notifsvc.GetService().UnreadCount(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("[Notify] unread count err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// HandlerMarkRead POST /api/notifications/:id/read
func HandlerMarkRead(c *gin.Context) {
	userID := midsec.UserID(c)
	if err := notifsvc.GetService().MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandlerMarkAllRead POST /api/notifications/read_all
func HandlerMarkAllRead(c *gin.Context) {
	userID := midsec.UserID(c)
	if err := notifsvc.GetService().MarkAllRead(c.Request.Context(), userID); err != nil {
		logger.Errorf("[Notify] mark all err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
