package service

import (
	"context"
	"time"

	"JBProject/logger"
	msgmodel "JBProject/module/message/model"
	notifmodel "JBProject/module/notification/model"
	notifsvc "JBProject/module/notification/service"
	"JBProject/service/storage/mgo"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 站内信落库 + 借通知服务做实时提醒。落库与推送松耦合：
// 推没推到不回滚消息，接收方上线拉历史即可补齐。

func col() *mongo.Collection {
	return mgo.Collection(msgmodel.CollMessages)
}

// Send persist + 推送提醒
func Send(ctx context.Context, m *msgmodel.Message) error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return errors.New("senderID/receiverID empty")
	}
	if m.CreateTime.IsZero() {
		m.CreateTime = time.Now()
	}

	res, err := col().InsertOne(ctx, m)
	if err != nil {
		return errors.Wrap(err, "insert message")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}

	// 通知落库+推送失败不影响消息本身
	if nerr := notifsvc.GetService().Create(ctx, &notifmodel.Notification{
		UserID:  m.ReceiverID,
		Type:    notifmodel.TypeMessage,
		Title:   "新消息",
		Message: m.Content,
		LinkURL: "/messages/" + m.SenderID,
	}); nerr != nil {
		logger.Warnf("[Message] notify err sender=%s receiver=%s: %v", m.SenderID, m.ReceiverID, nerr)
	}
	return nil
}

// History 两人会话记录，按时间倒序
func History(ctx context.Context, userID, peerID string, limit int64) ([]msgmodel.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID, "receiver_id": peerID},
		bson.M{"sender_id": peerID, "receiver_id": userID},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "create_time", Value: -1}}).
		SetLimit(limit)
	cur, err := col().Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]msgmodel.Message, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}

// MarkRead 把 peer 发给我的消息全部置已读
func MarkRead(ctx context.Context, userID, peerID string) error {
	_, err := col().UpdateMany(ctx,
		bson.M{"sender_id": peerID, "receiver_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	return errors.Wrap(err, "mark messages read")
}
