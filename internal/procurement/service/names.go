package service

import (
	"strings"

	"golang.org/x/text/cases"
)

// normalizeName 去首尾空白并合并连续空白
func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// foldName 名称去重键：Unicode 大小写折叠
// cases.Caser 有状态，不能跨 goroutine 共享，每次新建
func foldName(s string) string {
	return cases.Fold().String(normalizeName(s))
}

// nameSet 已存在名称集合
type nameSet map[string]string

func (s nameSet) has(name string) bool {
	_, ok := s[foldName(name)]
	return ok
}

// add 记录名称，value 一般为记录ID
func (s nameSet) add(name, value string) {
	s[foldName(name)] = value
}

func (s nameSet) get(name string) (string, bool) {
	v, ok := s[foldName(name)]
	return v, ok
}
