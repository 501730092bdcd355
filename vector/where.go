package vector

import "github.com/rushteam/flickrec/core"

// BuildWhere 把结构化过滤条件编译为 Chroma 的 where 子句。
//
// 编译规则：
//   - 单个类型：{"is_<genre>": true}
//   - 多个类型：{"$or": [{"is_a": true}, {"is_b": true}]}
//   - 语言：{"language": "<code>"}
//   - 最小年份：{"year": {"$gte": N}}（闭区间）
//   - 多个维度同时存在时用 {"$and": [...]} 组合
//
// 空条件返回 nil（查询时不带 where 子句）。
func BuildWhere(filter *core.MetadataFilter) map[string]any {
	if filter.Empty() {
		return nil
	}

	clauses := make([]map[string]any, 0, 3)

	if len(filter.Genres) == 1 {
		clauses = append(clauses, map[string]any{"is_" + filter.Genres[0]: true})
	} else if len(filter.Genres) > 1 {
		ors := make([]map[string]any, 0, len(filter.Genres))
		for _, g := range filter.Genres {
			ors = append(ors, map[string]any{"is_" + g: true})
		}
		clauses = append(clauses, map[string]any{"$or": ors})
	}

	if filter.Language != "" {
		clauses = append(clauses, map[string]any{"language": filter.Language})
	}

	if filter.MinYear > 0 {
		clauses = append(clauses, map[string]any{"year": map[string]any{"$gte": filter.MinYear}})
	}

	if len(clauses) == 1 {
		return clauses[0]
	}
	return map[string]any{"$and": clauses}
}
