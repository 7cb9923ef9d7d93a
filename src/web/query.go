package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"TurnaroundAnalysis/src/processor"
)

// selectionFromQuery 参数缺省时使用默认集合; 参数存在但全为空白时为空集合
func selectionFromQuery(q url.Values, def processor.Selection) processor.Selection {
	return processor.Selection{
		Airports: setParam(q, "airport", def.Airports),
		Aircraft: setParam(q, "aircraft", def.Aircraft),
		Tasks:    setParam(q, "task", def.Tasks),
	}
}

func setParam(q url.Values, key string, def processor.Set) processor.Set {
	values, ok := q[key]
	if !ok {
		return def
	}
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return processor.NewSet(kept...)
}

// detailQuery 解析 sort, desc, q, limit
func detailQuery(q url.Values) (processor.DetailQuery, error) {
	dq := processor.DetailQuery{
		SortBy: q.Get("sort"),
		Search: q.Get("q"),
	}
	if v := q.Get("desc"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return dq, fmt.Errorf("参数 desc 无效: %q", v)
		}
		dq.Descending = desc
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return dq, fmt.Errorf("参数 limit 无效: %q", v)
		}
		dq.Limit = limit
	}
	return dq, nil
}
