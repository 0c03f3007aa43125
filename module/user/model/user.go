package model

import "time"

// 角色常量：求职者 / 雇主 / 管理员
const (
	RoleSeeker   = "seeker"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

// User users 表（Postgres）
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreateTime   time.Time `json:"create_time"`
}
