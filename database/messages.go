package database

import (
	"context"

	"github.com/skillsync/skillsync/models"

	"gorm.io/gorm"
)

// MessageStore 私信存储
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore 创建私信存储
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create 保存消息
func (s *MessageStore) Create(ctx context.Context, msg *models.Message) error {
	return translate(s.db.WithContext(ctx).Create(msg).Error)
}

// Conversation 两个用户之间的消息，最新在前
func (s *MessageStore) Conversation(ctx context.Context, a, b uint, offset, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	return msgs, translate(err)
}

// Conversations 用户的所有会话摘要，按最近消息排序
func (s *MessageStore) Conversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, translate(err)
	}

	ids := counterparts(userID, msgs)
	var users []models.User
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, translate(err)
		}
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	return groupConversations(userID, msgs, byID), nil
}

// MarkRead 把 senderID 发给 receiverID 的未读消息标记为已读
func (s *MessageStore) MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, translate(res.Error)
}

func counterpart(userID uint, m models.Message) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// counterparts 按首次出现顺序返回会话对方ID
func counterparts(userID uint, msgs []models.Message) []uint {
	seen := make(map[uint]bool)
	var out []uint
	for _, m := range msgs {
		other := counterpart(userID, m)
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}

// groupConversations msgs 需按时间倒序；已删除的对方用户会被跳过
func groupConversations(userID uint, msgs []models.Message, users map[uint]models.User) []models.Conversation {
	index := make(map[uint]int)
	conversations := make([]models.Conversation, 0)

	for _, m := range msgs {
		other := counterpart(userID, m)
		user, ok := users[other]
		if !ok {
			continue
		}
		i, exists := index[other]
		if !exists {
			index[other] = len(conversations)
			conversations = append(conversations, models.Conversation{
				OtherUser:   user.Summary(),
				LastMessage: m.ToResponse(),
			})
			i = len(conversations) - 1
		}
		if m.ReceiverID == userID && !m.IsRead {
			conversations[i].UnreadCount++
		}
	}
	return conversations
}
