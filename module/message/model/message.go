package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollMessages = "messages"

// Message messages 集合（Mongo）。站内信的真相源；
// WS 的 new_message 事件只是实时加速，不是投递凭证。
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   string             `bson:"sender_id" json:"senderId"`
	ReceiverID string             `bson:"receiver_id" json:"receiverId"`
	Content    string             `bson:"content" json:"content"`
	IsRead     bool               `bson:"is_read" json:"isRead"`
	CreateTime time.Time          `bson:"create_time" json:"createTime"`
}
