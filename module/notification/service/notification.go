package service

import (
	"context"
	"time"

	"JBProject/logger"
	notifmodel "JBProject/module/notification/model"
	"JBProject/service/storage/mgo"
	"JBProject/service/ws"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Service 通知读写 + 实时推送。落库成功才推；推失败不影响请求结果
// （投递是尽力的，未读数接口兜底）。
type Service struct {
	disp *ws.Dispatcher
}

var notifySvc *Service

func InitService(disp *ws.Dispatcher) *Service {
	notifySvc = &Service{disp: disp}
	return notifySvc
}

func GetService() *Service {
	if notifySvc == nil {
		panic("notification service not initialized")
	}
	return notifySvc
}

func (s *Service) col() *mongo.Collection {
	return mgo.Collection(notifmodel.CollNotifications)
}

// Create 落库后推给目标用户的所有在线连接；这是业务层到网关核心的唯一集成点
func (s *Service) Create(ctx context.Context, n *notifmodel.Notification) error {
	if n.UserID == "" {
		return errors.New("userID empty")
	}
	if n.CreateTime.IsZero() {
		n.CreateTime = time.Now()
	}

	res, err := s.col().InsertOne(ctx, n)
	if err != nil {
		return errors.Wrap(err, "insert notification")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}

	sent := s.disp.PushNotification(n.UserID, &ws.Notification{
		UserID:  n.UserID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		LinkURL: n.LinkURL,
	})
	logger.Infof("[Notify] created user=%s type=%s pushed=%d", n.UserID, n.Type, sent)
	return nil
}

// List 最近通知，按时间倒序
func (s *Service) List(ctx context.Context, userID string, limit int64) ([]notifmodel.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "create_time", Value: -1}}).
		SetLimit(limit)
	cur, err := s.col().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find notifications")
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]notifmodel.Notification, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode notifications")
	}
	return out, nil
}

// UnreadCount 未读数；错过实时推送的客户端靠这个对账
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.col().CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, errors.Wrap(err, "count unread")
	}
	return n, nil
}

// MarkRead 置已读；带 user_id 条件防越权
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(err, "bad id")
	}
	_, err = s.col().UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}})
	return errors.Wrap(err, "mark read")
}

// MarkAllRead 全部置已读
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.col().UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	return errors.Wrap(err, "mark all read")
}
