package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrBadCredentials 用户名或密码错误
	ErrBadCredentials = errors.New("bad credentials")
)

// User 系统用户，审计记录的 actor 指向其 ID
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Roles     string    `gorm:"size:255" json:"roles"` // 逗号分隔
	Password  string    `gorm:"size:100" json:"-"`     // bcrypt 哈希
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// RoleList 拆分角色
func (u *User) RoleList() []string {
	var roles []string
	for _, r := range strings.Split(u.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// UserDirectory 用户查询
type UserDirectory struct {
	db *gorm.DB
}

// NewUserDirectory 创建用户目录
func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// FindByUsername 按用户名查询
func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// Ensure 用户不存在时创建
func (d *UserDirectory) Ensure(ctx context.Context, username string, roles ...string) (*User, error) {
	user := User{Username: username, Roles: strings.Join(roles, ",")}
	err := d.db.WithContext(ctx).Where(User{Username: username}).FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return &user, nil
}

// SetPassword 以 bcrypt 哈希保存密码
func (d *UserDirectory) SetPassword(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码哈希失败: %w", err)
	}
	result := d.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Update("password", string(hash))
	if result.Error != nil {
		return fmt.Errorf("更新密码失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Authenticate 校验用户名和密码，用户不存在或未设置密码同样返回 ErrBadCredentials
func (d *UserDirectory) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := d.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Password == "" {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}
