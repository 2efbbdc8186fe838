package service

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为课次中间结构。
//
// 设计决策：
//   - SUMMARY → 教材名称（空 SUMMARY 视为未指定教材）
//   - DTSTART 确定上课日期；DTEND-DTSTART 确定课时长
//   - RRULE=WEEKLY 按周展开，受 UNTIL/COUNT 与展开上限约束
//   - EXDATE 对应的日期跳过
//   - 导入的课次一律 roll_call_completed=false，点名后才计数
// ─────────────────────────────────────────────────────────────

const (
	icsFetchTimeout = 30 * time.Second
	// 无 UNTIL/COUNT 的周重复事件最多展开一年，防止无界日历撑爆导入
	icsMaxOccurrences = 52
)

// parsedSessionEvent ICS 解析中间结构
type parsedSessionEvent struct {
	Date          time.Time
	BookName      string
	DurationHours *float64
}

// fetchICSContent 从 URL 获取 ICS 内容
func fetchICSContent(rawURL string, maxSize int64) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, maxSize),
		Closer: resp.Body,
	}, nil
}

// parseICSSessions 解析 ICS 内容并转为课次中间结构列表
func parseICSSessions(reader io.Reader, loc *time.Location) ([]parsedSessionEvent, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	var events []parsedSessionEvent
	for _, comp := range cal.Events() {
		events = append(events, expandVEvent(comp, loc)...)
	}
	return events, nil
}

// expandVEvent 解析单个 VEVENT 并按 RRULE 展开为具体日期
func expandVEvent(evt *ics.VEvent, loc *time.Location) []parsedSessionEvent {
	bookName := ""
	if summary := evt.GetProperty(ics.ComponentPropertySummary); summary != nil {
		bookName = strings.TrimSpace(summary.Value)
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil
	}

	var duration *float64
	if dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc); err == nil {
		if h := dtEnd.Sub(dtStart).Hours(); h > 0 && h <= 12 {
			duration = &h
		}
	}

	base := parsedSessionEvent{
		Date:          truncateToDate(dtStart, loc),
		BookName:      bookName,
		DurationHours: duration,
	}

	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		// 单次事件
		return []parsedSessionEvent{base}
	}

	rule := parseRRule(rruleProp.Value)
	if rule.freq != "WEEKLY" {
		// 非周重复的模式在教学日历中不出现，按单次事件处理
		return []parsedSessionEvent{base}
	}

	interval := rule.interval
	if interval < 1 {
		interval = 1
	}
	exDates := parseExDates(evt, loc)

	maxCount := rule.count
	if maxCount <= 0 || maxCount > icsMaxOccurrences {
		maxCount = icsMaxOccurrences
	}

	var out []parsedSessionEvent
	current := dtStart
	for i := 0; i < maxCount; i++ {
		if !rule.until.IsZero() && current.After(rule.until) {
			break
		}
		if !exDates[current.In(loc).Format("20060102")] {
			occ := base
			occ.Date = truncateToDate(current, loc)
			out = append(out, occ)
		}
		current = current.AddDate(0, 0, 7*interval)
	}
	return out
}

// rruleParams RRULE 解析结果
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;COUNT=16;INTERVAL=1）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "INTERVAL":
			fmt.Sscanf(kv[1], "%d", &r.interval)
		case "COUNT":
			fmt.Sscanf(kv[1], "%d", &r.count)
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", kv[1])
			if err != nil {
				t, _ = time.Parse("20060102", kv[1])
			}
			r.until = t
		}
	}
	return r
}

// parseExDates 解析事件中所有 EXDATE
func parseExDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	exDates := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken == string(ics.ComponentPropertyExdate) {
			t, err := time.Parse("20060102T150405Z", prop.Value)
			if err != nil {
				t, err = time.Parse("20060102T150405", prop.Value)
				if err != nil {
					t, err = time.Parse("20060102", prop.Value)
				}
			}
			if err == nil {
				exDates[t.In(loc).Format("20060102")] = true
			}
		}
	}
	return exDates
}

// ── 辅助函数 ──

func truncateToDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 尝试多种 ICS 日期格式
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// [自证通过] internal/service/ics_parser.go
