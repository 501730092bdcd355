package filter

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/flickrec/core"
)

// ExprFilter 是基于 CEL (Common Expression Language) 的规则过滤器，
// 用于运营侧的临时下线规则，不用改代码即可生效。
//
// 表达式返回 true 表示保留候选，false 表示过滤。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：candidate.year >= 1990 / candidate.distance < 0.8
//   - 包含："Action" in candidate.genres / "heist" in candidate.keywords
//   - 逻辑：candidate.language == "en" && candidate.year >= 2000
//
// 示例：
//   - `candidate.year == 0 || candidate.year >= 1980` → 下线 1980 年前的老片
//   - `!("Horror" in candidate.genres)` → 临时屏蔽恐怖片
type ExprFilter struct {
	expr string
	prg  cel.Program
}

// NewExprFilter 创建一个规则过滤器。表达式在此处一次性编译，
// 之后每个候选复用同一个 Program（CEL Program 线程安全）。
func NewExprFilter(expr string) (*ExprFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("candidate", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	return &ExprFilter{expr: expr, prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}

	out, _, err := f.prg.Eval(map[string]any{
		"candidate": map[string]any{
			"id":       c.ID,
			"distance": c.Distance,
			"genres":   c.Genres,
			"language": c.Language,
			"year":     c.Year,
			"keywords": c.Keywords,
		},
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	// 表达式语义是“保留”，过滤器语义是“移除”
	return !keep, nil
}
