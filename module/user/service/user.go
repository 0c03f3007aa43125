package service

import (
	"context"

	usermodel "JBProject/module/user/model"
	pgstore "JBProject/service/storage/pg"
	errs "JBProject/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// FindByEmail 按邮箱查用户；不存在返回 errs.ErrNotFound
func FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	pool := pgstore.GetPool()
	var u usermodel.User
	err := pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, create_time
		   FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreateTime)
	if err == pgx.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return &u, nil
}

// Create 注册新用户；邮箱唯一约束冲突时返回 errs.ErrRecordExist
func Create(ctx context.Context, email, password, name, role string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, errors.Wrap(err, "hash password")
	}
	if role == "" {
		role = usermodel.RoleSeeker
	}

	pool := pgstore.GetPool()
	var id int64
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, role, create_time)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id`,
		email, string(hash), name, role).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, errs.ErrRecordExist
	}
	if err != nil {
		return 0, errors.Wrap(err, "insert user")
	}
	return id, nil
}

// VerifyLogin 校验邮箱+密码；不匹配一律返回 errs.ErrPassword（不区分用户不存在）
func VerifyLogin(ctx context.Context, email, password string) (*usermodel.User, error) {
	u, err := FindByEmail(ctx, email)
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil, errs.ErrPassword
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errs.ErrPassword
	}
	return u, nil
}
