package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/study"
)

// memDB 仓储接口的内存实现
type memDB struct {
	mu          sync.Mutex
	users       map[uint]*models.User
	connections map[uint]*models.Connection
	messages    []*models.Message
	logs        []*models.StudyLog
	streaks     map[uint]*models.Streak
	nextID      uint
	clock       time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:       make(map[uint]*models.User),
		connections: make(map[uint]*models.Connection),
		streaks:     make(map[uint]*models.Streak),
		clock:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memDB) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// users

func (m *memDB) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrConflict
		}
	}
	user.ID = m.id()
	user.CreatedAt = m.tick()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memDB) FindByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (m *memDB) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memDB) sortedUsers() []models.User {
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (m *memDB) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedUsers(), nil
}

func (m *memDB) Candidates(_ context.Context, excludeID uint, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.sortedUsers() {
		if u.ID == excludeID {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memDB) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// connections

type memConnections struct{ *memDB }

func (m memConnections) withUsers(c *models.Connection) models.Connection {
	cp := *c
	if u, ok := m.users[c.FromUserID]; ok {
		cp.FromUser = *u
	}
	if u, ok := m.users[c.ToUserID]; ok {
		cp.ToUser = *u
	}
	return cp
}

func (m memConnections) FindBetween(_ context.Context, a, b uint) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.connections {
		if (c.FromUserID == a && c.ToUserID == b) || (c.FromUserID == b && c.ToUserID == a) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m memConnections) Create(_ context.Context, conn *models.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.connections {
		if c.FromUserID == conn.FromUserID && c.ToUserID == conn.ToUserID {
			return database.ErrConflict
		}
	}
	conn.ID = m.id()
	conn.CreatedAt = m.tick()
	conn.UpdatedAt = conn.CreatedAt
	cp := *conn
	m.connections[conn.ID] = &cp
	return nil
}

func (m memConnections) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, id)
	return nil
}

func (m memConnections) filter(keep func(*models.Connection) bool) []models.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Connection
	for _, c := range m.connections {
		if keep(c) {
			out = append(out, m.withUsers(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m memConnections) Received(_ context.Context, userID uint) ([]models.Connection, error) {
	return m.filter(func(c *models.Connection) bool { return c.ToUserID == userID }), nil
}

func (m memConnections) Sent(_ context.Context, userID uint) ([]models.Connection, error) {
	return m.filter(func(c *models.Connection) bool { return c.FromUserID == userID }), nil
}

func (m memConnections) Accepted(_ context.Context, userID uint) ([]models.Connection, error) {
	return m.filter(func(c *models.Connection) bool {
		return (c.FromUserID == userID || c.ToUserID == userID) && c.Status == models.ConnectionAccepted
	}), nil
}

func (m memConnections) FindPending(_ context.Context, id, toUserID uint) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[id]
	if !ok || c.ToUserID != toUserID || c.Status != models.ConnectionPending {
		return nil, database.ErrNotFound
	}
	cp := m.withUsers(c)
	return &cp, nil
}

func (m memConnections) UpdateStatus(_ context.Context, conn *models.Connection, status models.ConnectionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[conn.ID]
	if !ok {
		return database.ErrNotFound
	}
	c.Status = status
	conn.Status = status
	return nil
}

// messages

type memMessages struct{ *memDB }

func (m memMessages) Create(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	msg.CreatedAt = m.tick()
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m memMessages) Conversation(_ context.Context, a, b uint, offset, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			out = append(out, *msg)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memMessages) Conversations(_ context.Context, userID uint) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := make(map[uint]int)
	var out []models.Conversation
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		other := msg.SenderID
		if other == userID {
			other = msg.ReceiverID
		} else if msg.ReceiverID != userID {
			continue
		}
		k, ok := index[other]
		if !ok {
			k = len(out)
			index[other] = k
			out = append(out, models.Conversation{OtherUser: m.users[other].Summary(), LastMessage: msg.ToResponse()})
		}
		if msg.ReceiverID == userID && !msg.IsRead {
			out[k].UnreadCount++
		}
	}
	return out, nil
}

func (m memMessages) MarkRead(_ context.Context, senderID, receiverID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

// study

type memStudy struct{ *memDB }

func (m memStudy) Record(_ context.Context, log *models.StudyLog) (*models.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = m.id()
	log.CreatedAt = m.tick()
	cp := *log
	m.logs = append(m.logs, &cp)

	streak, ok := m.streaks[log.UserID]
	if !ok {
		streak = &models.Streak{UserID: log.UserID}
		m.streaks[log.UserID] = streak
	}
	study.Advance(streak, log.Date)
	out := *streak
	return &out, nil
}

func (m memStudy) Logs(_ context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.StudyLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudyLog
	for _, l := range m.logs {
		if l.UserID == userID && !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m memStudy) Streak(_ context.Context, userID uint) (*models.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.streaks[userID]; ok {
		out := *s
		return &out, nil
	}
	return nil, database.ErrNotFound
}
