package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 8192
	sendBuffer   = 16
)

// FrameHandler 处理客户端发来的帧
type FrameHandler func(ctx context.Context, c *Client, frame Frame)

// Client 单个 websocket 连接
type Client struct {
	ID     string
	UserID uint

	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	closed bool // 由 hub.mu 保护
}

// enqueue 非阻塞入队，调用方需持有 hub.mu
func (c *Client) enqueue(payload []byte) bool {
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close 关闭发送队列，调用方需持有 hub.mu 写锁
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Send 向该连接发送一帧
func (c *Client) Send(frame Frame) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		return false
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return !c.closed && c.enqueue(payload)
}

// SendError 发送错误帧
func (c *Client) SendError(msg string) bool {
	return c.Send(Frame{Type: FrameError, Error: msg})
}

// ReadPump 读取客户端帧直到连接断开或 ctx 取消，返回前注销连接
func (c *Client) ReadPump(ctx context.Context, handle FrameHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.SendError("invalid frame")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Info("websocket closed", zap.Uint("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		handle(ctx, c, frame)
	}
}

// WritePump 把发送队列写入连接，队列关闭后发送关闭帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
