package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SurveyUpdate 投票后推送给订阅者的问卷计数
type SurveyUpdate struct {
	Type     string      `json:"type"`
	SurveyID uint        `json:"survey_id"`
	Data     interface{} `json:"data"`
}

// Client 代表一个订阅某问卷的WebSocket连接
type Client struct {
	SurveyID uint

	conn *websocket.Conn
	send chan []byte
}

// Hub 按问卷ID维护客户端集合并广播计数变化
type Hub struct {
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

// NewHub 创建一个新的Hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run 启动Hub消息处理循环，ctx结束时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.SurveyID]; !ok {
				h.clients[client.SurveyID] = make(map[*Client]bool)
			}
			h.clients[client.SurveyID][client] = true
			n := len(h.clients[client.SurveyID])
			h.mu.Unlock()
			h.log.Debug("客户端已订阅问卷", zap.Uint("survey_id", client.SurveyID), zap.Int("clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.log.Debug("客户端已取消订阅", zap.Uint("survey_id", client.SurveyID))
		}
	}
}

// remove 需持有写锁
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.SurveyID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.SurveyID)
	}
}

// BroadcastSurvey 向订阅该问卷的所有客户端推送最新计数
func (h *Hub) BroadcastSurvey(surveyID uint, data interface{}) {
	payload, err := json.Marshal(SurveyUpdate{Type: "survey_update", SurveyID: surveyID, Data: data})
	if err != nil {
		h.log.Error("序列化问卷更新失败", zap.Uint("survey_id", surveyID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[surveyID]
	for client := range set {
		select {
		case client.send <- payload:
		default:
			// 发送缓冲区已满
			h.remove(client)
		}
	}
	if len(set) > 0 {
		h.log.Debug("已广播问卷更新", zap.Uint("survey_id", surveyID), zap.Int("clients", len(set)))
	}
}

// Subscribers 返回某问卷当前的订阅数
func (h *Hub) Subscribers(surveyID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[surveyID])
}

// RegisterClient 注册客户端到Hub。Hub已停止时直接关闭客户端发送通道。
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// UnregisterClient 从Hub中注销客户端
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
