package storage

import (
	"fmt"
	"strconv"
)

// StrToUint 将字符串转换为 uint，用于解析路由和表单中的 ID。
// 0 不是合法的 ID，会返回错误。
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if val == 0 {
		return 0, fmt.Errorf("无效的 ID: %q", s)
	}
	return uint(val), nil
}
