package database

import (
	"context"

	"github.com/skillsync/skillsync/models"

	"gorm.io/gorm"
)

// ConnectionStore 连接请求存储
type ConnectionStore struct {
	db *gorm.DB
}

// NewConnectionStore 创建连接请求存储
func NewConnectionStore(db *gorm.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

// FindBetween 查找两个用户之间任一方向的连接
func (s *ConnectionStore) FindBetween(ctx context.Context, a, b uint) (*models.Connection, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		First(&conn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

// Create 创建连接请求
func (s *ConnectionStore) Create(ctx context.Context, conn *models.Connection) error {
	return translate(s.db.WithContext(ctx).Create(conn).Error)
}

// Delete 物理删除连接（唯一索引需要释放）
func (s *ConnectionStore) Delete(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Unscoped().Delete(&models.Connection{}, id).Error)
}

// Received 收到的请求，最新在前
func (s *ConnectionStore) Received(ctx context.Context, userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := s.db.WithContext(ctx).Preload("FromUser").
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, translate(err)
}

// Sent 发出的请求，最新在前
func (s *ConnectionStore) Sent(ctx context.Context, userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := s.db.WithContext(ctx).Preload("ToUser").
		Where("from_user_id = ?", userID).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, translate(err)
}

// Accepted 已建立的连接
func (s *ConnectionStore) Accepted(ctx context.Context, userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := s.db.WithContext(ctx).Preload("FromUser").Preload("ToUser").
		Where("(from_user_id = ? OR to_user_id = ?) AND status = ?", userID, userID, models.ConnectionAccepted).
		Order("updated_at DESC").
		Find(&conns).Error
	return conns, translate(err)
}

// FindPending 查找发给 toUserID 的待处理请求
func (s *ConnectionStore) FindPending(ctx context.Context, id, toUserID uint) (*models.Connection, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).Preload("FromUser").
		Where("id = ? AND to_user_id = ? AND status = ?", id, toUserID, models.ConnectionPending).
		First(&conn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

// UpdateStatus 更新连接状态
func (s *ConnectionStore) UpdateStatus(ctx context.Context, conn *models.Connection, status models.ConnectionStatus) error {
	err := s.db.WithContext(ctx).Model(conn).Update("status", status).Error
	return translate(err)
}
