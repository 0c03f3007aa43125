package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollNotifications = "notifications"

// 通知类型（业务语义，网关只路由不解释）
const (
	TypeApplication = "application" // 投递状态变更
	TypeMessage     = "message"     // 新私信
	TypeJob         = "job"         // 职位相关
	TypeSystem      = "system"      // 平台公告/审核
)

// Notification notifications 集合（Mongo）。真相源在库里，
// WS 推送只是尽力的实时加速，没推到下次拉未读数兜底。
type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"userId"`
	Type       string             `bson:"type" json:"type"`
	Title      string             `bson:"title" json:"title"`
	Message    string             `bson:"message" json:"message"`
	LinkURL    string             `bson:"link_url,omitempty" json:"linkUrl,omitempty"`
	IsRead     bool               `bson:"is_read" json:"isRead"`
	CreateTime time.Time          `bson:"create_time" json:"createTime"`
}
