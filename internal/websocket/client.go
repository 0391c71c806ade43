package websocket

import (
	"log"
	"net/http"
	"time"

	"quest-go/internal/config"

	"github.com/gorilla/websocket"
)

// Client 是一个 websocket 连接和 Hub 之间的中间层。订阅者只接收事件，
// 读循环只用来处理 pong 和检测断开。
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	QuestID uint
	UserID  uint
}

// NewClient creates a subscriber with a buffered send queue.
func NewClient(hub *Hub, conn *websocket.Conn, questID, userID uint) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		QuestID: questID,
		UserID:  userID,
	}
}

func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	pongWait := time.Duration(wsCfg.PongWaitSeconds) * time.Second
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket 错误 (quest=%d user=%d): %v", c.QuestID, c.UserID, err)
			}
			return
		}
		// 订阅者发来的消息直接忽略
	}
}

// writePump 每个事件单独一帧发送，客户端按帧解析 JSON。
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	writeWait := time.Duration(wsCfg.WriteWaitSeconds) * time.Second
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeQuestSubscriber 升级连接并把它注册为 questID 的订阅者。调用方负责鉴权。
func ServeQuestSubscriber(hub *Hub, questID, userID uint, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ServeQuestSubscriber - Upgrade 失败:", err)
		return
	}
	client := NewClient(hub, conn, questID, userID)
	hub.Register(client)

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)

	log.Printf("订阅者已连接: quest=%d user=%d", questID, userID)
}
