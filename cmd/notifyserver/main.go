package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"quest-go/internal/config"
	"quest-go/internal/handlers/notifyserver"
	appKafka "quest-go/internal/kafka"
	appRedis "quest-go/internal/redis"
	"quest-go/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("QUEST_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("通知服务器配置加载成功。")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := appRedis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	defer redisClient.Close()
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建 Kafka 消费者: %v", err)
	}
	defer consumer.Close()

	hub := websocket.NewHub()
	wsHandler := notifyserver.NewWebSocketHandler(hub, tokenBlacklist, cfg)

	r := mux.NewRouter()
	wsPath := strings.TrimSuffix(cfg.Server.WebSocketPath, "/") + "/{questID}"
	r.HandleFunc(wsPath, wsHandler.ServeWS).Methods(http.MethodGet)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		topics := []string{cfg.Kafka.AttachmentEventsTopic}
		err := consumer.Consume(gctx, topics, cfg.Kafka.ConsumerGroup, func(_ context.Context, msg *confluentKafka.Message) error {
			event, err := appKafka.DecodeAttachmentEvent(msg)
			if err != nil {
				// 坏消息直接跳过，不阻塞后续事件
				log.Printf("错误: 跳过无法解析的附件事件: %v", err)
				return nil
			}
			hub.Publish(event)
			return nil
		})
		if err != nil {
			return fmt.Errorf("kafka 消费者退出: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Printf("通知服务器启动于 %s, WebSocket 路径: %s", serverAddr, wsPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("通知服务器启动失败: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("通知服务器准备关闭...")
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return httpServer.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		log.Printf("通知服务器异常退出: %v", err)
		os.Exit(1)
	}
	log.Println("通知服务器已优雅关闭。")
}
