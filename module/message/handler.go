package message

import (
	"net/http"

	"JBProject/logger"
	midsec "JBProject/middleware/security"
	msgmodel "JBProject/module/message/model"
	msgsvc "JBProject/module/message/service"
	errs "JBProject/tools/errs"

	"github.com/gin-gonic/gin"
)

type sendReq struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type markReadReq struct {
	PeerID string `json:"peerId" binding:"required"`
}

// HandlerSend POST /api/messages
func HandlerSend(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	m := &msgmodel.Message{
		SenderID:   midsec.UserID(c),
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	}
	if err := msgsvc.Send(c.Request.Context(), m); err != nil {
		logger.Errorf("[Message] send err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, m)
}

// HandlerHistory GET /api/messages/:peer
func HandlerHistory(c *gin.Context) {
	userID := midsec.UserID(c)
	list, err := msgsvc.History(c.Request.Context(), userID, c.Param("peer"), 100)
	if err != nil {
		logger.Errorf("[Message] history err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// HandlerMarkRead POST /api/messages/read
func HandlerMarkRead(c *gin.Context) {
	var req markReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := msgsvc.MarkRead(c.Request.Context(), midsec.UserID(c), req.PeerID); err != nil {
		logger.Errorf("[Message] mark read err: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
