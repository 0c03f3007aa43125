package mgo

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	mgoOnce sync.Once
	mgoMgr  *Manager
)

type Manager struct {
	client *mongo.Client
	db     *mongo.Database
}

type Config struct {
	URI      string
	Database string
}

// InitMongo 初始化 Mongo 管理器（单例）
func InitMongo(ctx context.Context, c Config) error {
	var initErr error
	mgoOnce.Do(func() {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		cli, err := mongo.Connect(cctx, options.Client().ApplyURI(c.URI))
		if err != nil {
			initErr = errors.Wrap(err, "mongo connect")
			return
		}
		if err := cli.Ping(cctx, readpref.Primary()); err != nil {
			initErr = errors.Wrap(err, "mongo ping")
			return
		}
		mgoMgr = &Manager{client: cli, db: cli.Database(c.Database)}
	})
	return initErr
}

// Collection 获取集合句柄
func Collection(name string) *mongo.Collection {
	if mgoMgr == nil {
		panic("Mongo not initialized, call InitMongo first")
	}
	return mgoMgr.db.Collection(name)
}

func CloseMongo(ctx context.Context) error {
	if mgoMgr != nil && mgoMgr.client != nil {
		return mgoMgr.client.Disconnect(ctx)
	}
	return nil
}
