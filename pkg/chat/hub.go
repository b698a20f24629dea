package chat

import (
	"crypto/rand"
	"encoding/json"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/models"
)

// 帧类型
const (
	FrameSendMessage    = "send_message"
	FrameReceiveMessage = "receive_message"
	FrameError          = "error"
)

// Frame websocket 消息帧
type Frame struct {
	Type       string                  `json:"type"`
	ReceiverID uint                    `json:"receiverId,omitempty"`
	Text       string                  `json:"text,omitempty"`
	Message    *models.MessageResponse `json:"message,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Hub 在线连接注册表，一个用户可以有多个连接
type Hub struct {
	clients map[uint]map[*Client]struct{}
	closed  bool
	mu      sync.RWMutex

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy

	logger *zap.Logger
}

// NewHub 创建连接注册表
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		entropy: ulid.Monotonic(rand.Reader, 0),
		logger:  logger,
	}
}

func (h *Hub) newID() string {
	h.entropyMu.Lock()
	defer h.entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), h.entropy).String()
}

// NewClient 为用户的一个 websocket 连接创建客户端，conn 可以为 nil（仅用于测试）
func (h *Hub) NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		ID:     h.newID(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
	}
}

// Register 登记连接，Hub 已关闭时返回 false
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		c.close()
		return false
	}
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("client registered", zap.Uint("user_id", c.UserID), zap.String("client_id", c.ID))
	return true
}

// Unregister 移除连接并关闭其发送队列
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregister(c)
}

// unregister 需持有写锁
func (h *Hub) unregister(c *Client) {
	if set, ok := h.clients[c.UserID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.UserID)
			}
			h.logger.Debug("client unregistered", zap.Uint("user_id", c.UserID), zap.String("client_id", c.ID))
		}
	}
	c.close()
}

// Online 用户是否至少有一个在线连接
func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// OnlineUsers 在线用户ID，升序
func (h *Hub) OnlineUsers() []uint {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SendTo 把帧投递给用户的所有在线连接，返回投递成功的连接数
func (h *Hub) SendTo(userID uint, frame Frame) int {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to encode frame", zap.Error(err))
		return 0
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.clients[userID] {
		if c.enqueue(payload) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// 发送队列已满的连接视为断开
	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			h.logger.Warn("dropping slow client", zap.Uint("user_id", c.UserID), zap.String("client_id", c.ID))
			h.unregister(c)
		}
		h.mu.Unlock()
	}
	return delivered
}

// Close 关闭所有连接，之后的 Register 都会失败
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.clients {
		for c := range set {
			c.close()
		}
	}
	h.clients = make(map[uint]map[*Client]struct{})
	h.closed = true
}
