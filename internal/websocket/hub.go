package websocket

import (
	"context"
	"encoding/json"
	"log"

	"quest-go/internal/apitypes"
)

// Hub 按 quest 维护订阅者，并把附件事件推送给订阅了该 quest 的所有连接。
// 所有状态只在 Run 的 goroutine 中修改。
type Hub struct {
	// questID -> 该 quest 的订阅连接。同一个用户可以有多个连接。
	subscribers map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	events     chan apitypes.AttachmentEvent

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		events:      make(chan apitypes.AttachmentEvent, 256),
		done:        make(chan struct{}),
	}
}

// Register 把连接加入其 quest 的订阅集合。Hub 已停止时直接关闭连接的发送通道。
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes the client. Safe to call after the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish 把事件交给 Hub 投递。不会阻塞调用方 (Kafka 消费循环)，队列满时丢弃事件。
func (h *Hub) Publish(event apitypes.AttachmentEvent) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.events <- event:
		return true
	default:
		log.Printf("警告: Hub 事件队列已满，丢弃 quest %d 的事件 %s", event.QuestID, event.Type)
		return false
	}
}

// Run 处理注册、注销和事件投递，直到 ctx 被取消。退出时关闭所有连接的发送通道。
func (h *Hub) Run(ctx context.Context) {
	log.Println("WebSocket Hub 已启动。")
	defer func() {
		close(h.done)
		for questID, clients := range h.subscribers {
			for c := range clients {
				close(c.send)
			}
			delete(h.subscribers, questID)
		}
		log.Println("WebSocket Hub 已停止。")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients, ok := h.subscribers[c.QuestID]
			if !ok {
				clients = make(map[*Client]struct{})
				h.subscribers[c.QuestID] = clients
			}
			clients[c] = struct{}{}
			log.Printf("订阅者已注册: quest=%d user=%d (共 %d 个)", c.QuestID, c.UserID, len(clients))

		case c := <-h.unregister:
			h.remove(c)

		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event apitypes.AttachmentEvent) {
	clients := h.subscribers[event.QuestID]
	if len(clients) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("错误: 无法序列化附件事件 (quest=%d): %v", event.QuestID, err)
		return
	}
	for c := range clients {
		select {
		case c.send <- payload:
		default:
			// 发送缓冲区已满，认为客户端太慢或已断开
			log.Printf("警告: quest %d 的订阅者 (user=%d) 发送通道已满，移除。", c.QuestID, c.UserID)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.subscribers[c.QuestID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.subscribers, c.QuestID)
	}
	log.Printf("订阅者已注销: quest=%d user=%d", c.QuestID, c.UserID)
}
