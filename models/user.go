package models

import (
	"time"

	"github.com/skillsync/skillsync/pkg/matching"

	"gorm.io/gorm"
)

// 学习方式
type Mode string

const (
	ModeOnline  Mode = "Online"
	ModeOffline Mode = "Offline"
	ModeHybrid  Mode = "Hybrid"
)

// Valid 是否为合法的学习方式
func (m Mode) Valid() bool {
	switch m {
	case ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// User 用户模型
type User struct {
	gorm.Model
	Name           string   `gorm:"size:100;not null" json:"name"`
	Email          string   `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password       string   `gorm:"size:255;not null" json:"-"`
	Skills         []string `gorm:"serializer:json" json:"skills"`
	Goals          []string `gorm:"serializer:json" json:"goals"`
	Mode           Mode     `gorm:"size:20;default:'Online'" json:"mode"`
	Availability   string   `gorm:"size:255" json:"availability"`
	ProfilePicture string   `gorm:"size:255" json:"profilePicture"`
}

// MatchProfile 转换为匹配引擎使用的画像
func (u *User) MatchProfile() matching.Profile {
	return matching.Profile{
		ID:     UserKey(u.ID),
		Skills: u.Skills,
		Goals:  u.Goals,
	}
}

// CredentialRequest 用户登录请求
type CredentialRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegistrationRequest 用户注册请求
type RegistrationRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserResponse 用户响应
type UserResponse struct {
	ID             uint      `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Skills         []string  `json:"skills"`
	Goals          []string  `json:"goals"`
	Mode           Mode      `json:"mode"`
	Availability   string    `json:"availability"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToResponse 转换为响应
func (u *User) ToResponse() UserResponse {
	skills, goals := u.Skills, u.Goals
	if skills == nil {
		skills = []string{}
	}
	if goals == nil {
		goals = []string{}
	}
	return UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Skills:         skills,
		Goals:          goals,
		Mode:           u.Mode,
		Availability:   u.Availability,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

// UserSummary 嵌入在连接和会话里的简要用户信息
type UserSummary struct {
	ID             uint   `json:"_id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Summary 转换为简要信息
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfilePicture: u.ProfilePicture}
}
