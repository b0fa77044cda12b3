package utils

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// StringPtr 返回字符串的指针，空串返回 nil
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue 解引用，nil 时返回空串
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FileExt 返回小写的扩展名（含点），没有扩展名时返回 fallback
func FileExt(filename, fallback string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallback
	}
	return ext
}
