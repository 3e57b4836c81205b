package database

import (
	"errors"

	"github.com/lib/pq"
)

// 领域错误哨兵，处理器据此映射HTTP状态码
var (
	// ErrNotFound 目标行不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一键冲突（重复邮箱、重复成员资格）
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotMember 调用者不是社区成员
	ErrNotMember = errors.New("not a member")
	// ErrNoFields 部分更新的字段集为空
	ErrNoFields = errors.New("no updatable fields provided")
	// ErrUnavailable 数据存储不可用
	ErrUnavailable = errors.New("store unavailable")
)

// PostgreSQL错误码
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// translateError 将驱动层错误翻译为领域错误
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// isForeignKeyViolation 判断是否为外键约束冲突
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
