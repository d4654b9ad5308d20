package biz

import (
	"regexp"
	"time"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dmyDatePattern   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	anyDatePattern   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)
	dateParamsInText = []string{ParamStartDate, ParamEndDate}
)

// ExtractDates 按出现顺序提取消息中的日期（YYYY-MM-DD 或 DD/MM/YYYY），无效日期忽略
func ExtractDates(raw string) []time.Time {
	var out []time.Time
	for _, token := range anyDatePattern.FindAllString(raw, -1) {
		if t, ok := parseDateToken(token); ok {
			out = append(out, t)
		}
	}
	return out
}

func parseDateToken(token string) (time.Time, bool) {
	if isoDatePattern.MatchString(token) {
		t, err := time.Parse(time.DateOnly, token)
		return t, err == nil
	}
	if m := dmyDatePattern.FindStringSubmatch(token); m != nil {
		t, err := time.Parse("2/1/2006", m[1]+"/"+m[2]+"/"+m[3])
		return t, err == nil
	}
	return time.Time{}, false
}

// BuildParameters 组装调用参数
// 消息中的日期依次填入 fecha_inicio、fecha_fin（仅当条目声明了该参数），显式参数优先。
func BuildParameters(d *domain.MetricDescriptor, raw string, explicit domain.Parameters) domain.Parameters {
	params := domain.Parameters{}

	dates := ExtractDates(raw)
	for i, name := range dateParamsInText {
		if i >= len(dates) || !d.HasParameter(name) {
			continue
		}
		params[name] = dates[i].Format(time.DateOnly)
	}

	for k, v := range explicit {
		params[k] = v
	}
	return params
}
