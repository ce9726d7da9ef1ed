// Package chatref 将配置里的聊天标识字符串归一化为
// Telegram Bot API 可用的聊天引用（数字ID或 @handle 公开标识）。
package chatref

import (
	"strconv"
	"strings"
)

// Kind 聊天引用类型
type Kind int

const (
	KindUnset  Kind = iota // 未配置
	KindID                 // 数字聊天ID（含 -100 开头的超级群/频道ID）
	KindHandle             // 公开标识，例如 "@mychannel"（不做进一步校验）
)

// Ref 已归一化的聊天引用，构建后不可变
type Ref struct {
	kind   Kind
	id     int64
	handle string
}

// Parse 归一化原始配置字符串
// 空白输入视为"未配置"而不是错误；该操作没有失败路径，只做分类。
func Parse(raw string) Ref {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}
	}

	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Ref{kind: KindID, id: id}
	}

	return Ref{kind: KindHandle, handle: raw}
}

// IsSet 引用是否已配置
func (r Ref) IsSet() bool { return r.kind != KindUnset }

// Kind 返回引用类型
func (r Ref) Kind() Kind { return r.kind }

// ID 返回数字聊天ID（仅 KindID 有意义）
func (r Ref) ID() int64 { return r.id }

// Value 返回可直接用作 Bot API ChatID 参数的值
// go-telegram/bot 的 ChatID 字段接受 int64 或 string
func (r Ref) Value() any {
	switch r.kind {
	case KindID:
		return r.id
	case KindHandle:
		return r.handle
	default:
		return nil
	}
}

// String 人类可读形式，用于日志和运行记录
func (r Ref) String() string {
	switch r.kind {
	case KindID:
		return strconv.FormatInt(r.id, 10)
	case KindHandle:
		return r.handle
	default:
		return "<unset>"
	}
}
