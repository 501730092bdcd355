package filter

import "github.com/rushteam/flickrec/core"

// BuildMetadataFilter 把一次推荐请求的过滤参数翻译为索引的结构化过滤条件。
//
// 规则：
//   - 类型：非空时按 is_<genre> 布尔标志做 OR；单个类型由后端退化为直接相等
//   - 语言：提供时对语言代码字段做精确相等
//   - 年份：minYear > 0 时对 year 字段做闭区间下界
//   - 组合：所有存在的子条件 AND；全部缺省返回 nil（无限制查询）
//
// 空串/空白类型名会被剔除，避免生成 is_ 这种无效标志。
func BuildMetadataFilter(genres []string, language string, minYear int) *core.MetadataFilter {
	cleaned := make([]string, 0, len(genres))
	for _, g := range genres {
		if g != "" {
			cleaned = append(cleaned, g)
		}
	}

	f := &core.MetadataFilter{
		Genres:   cleaned,
		Language: language,
		MinYear:  minYear,
	}
	if f.Empty() {
		return nil
	}
	return f
}
