package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// IsDuplicateKeyError 判断是否为 MySQL 唯一键冲突 (1062)
// 并发写入去重完全依赖唯一约束 + 冲突即已满足的处理策略
func IsDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return false
}
