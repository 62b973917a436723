package model

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BuildDisplayName 生成员工显示名："名 姓"，设置了常用名时以常用名替代名
func BuildDisplayName(firstName, lastName, preferredName string) string {
	given := NormalizeNamePart(preferredName)
	if given == "" {
		given = NormalizeNamePart(firstName)
	}
	family := NormalizeNamePart(lastName)

	switch {
	case given == "":
		return family
	case family == "":
		return given
	default:
		return given + " " + family
	}
}

// NormalizeNamePart 规范化单个姓名字段
//   - 去除首尾空白并合并连续空白
//   - 以空格、连字符分词，每段首字母大写其余小写（Smith-Jones）
//   - 撇号前仅一个字母时撇号后也大写（O'Brien、D'Angelo），否则保持小写
func NormalizeNamePart(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		segments := strings.Split(w, "-")
		for j, seg := range segments {
			segments[j] = titleSegment(seg)
		}
		words[i] = strings.Join(segments, "-")
	}
	return strings.Join(words, " ")
}

func titleSegment(seg string) string {
	if seg == "" {
		return seg
	}
	// Caser 有状态，不可跨 goroutine 共享
	title := cases.Title(language.Und)
	lower := cases.Lower(language.Und)

	parts := strings.Split(seg, "'")
	parts[0] = title.String(parts[0])
	for k := 1; k < len(parts); k++ {
		if k == 1 && utf8.RuneCountInString(parts[0]) == 1 {
			parts[k] = title.String(parts[k])
		} else {
			parts[k] = lower.String(parts[k])
		}
	}
	return strings.Join(parts, "'")
}
