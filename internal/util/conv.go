package util

import (
	"errors"
	"strconv"
)

var errInvalidID = errors.New(MsgInvalidID)

// ParseID 解析正整数 ID，0 和负数都视为非法
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// ParseOptionalID 与 ParseID 相同，但非法值返回 0
func ParseOptionalID(s string) uint {
	id, err := ParseID(s)
	if err != nil {
		return 0
	}
	return id
}
