package config

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ripplefeed/ripple/repository"
)

var (
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
)

// InitDatabase establishes a connection to MongoDB using configuration
// values and makes sure the collection indexes exist.
func InitDatabase() *mongo.Database {
	if mongoDB != nil {
		return mongoDB
	}

	cfg := Get()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 连接池参数：适中规模 + 主动回收空闲连接，避免长空闲被服务端关闭
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(20).
		SetMaxConnIdleTime(10 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// 启动期做一次 Ping，提前暴露网络/认证问题（否则错误可能延后到第一次查询）
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	mongoClient = client
	mongoDB = client.Database(cfg.MongoDatabase)

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Printf("index creation failed: %v", err)
	}

	return mongoDB
}

// DB provides access to the initialized database handle.
func DB() *mongo.Database {
	if mongoDB == nil {
		log.Fatal("database not initialized, call InitDatabase first")
	}
	return mongoDB
}

// CloseDatabase disconnects the Mongo client during shutdown.
func CloseDatabase() {
	if mongoClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Printf("database disconnect failed: %v", err)
	}
}
