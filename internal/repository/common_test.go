package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKeyError(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3_7' for key 'idx_direct_key'"}
	assert.True(t, IsDuplicateKeyError(dup))

	// 包装后仍可识别
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("create conversation: %w", dup)))

	assert.False(t, IsDuplicateKeyError(nil))
	assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}))
}
