// Package flickrec 是一个基于内容的电影推荐引擎（Flick Recommender）。
//
// 设计要点：
// - 画像即状态机：评分三态互斥、想看清单正交、曝光/历史单向累积
// - Pipeline-first: 读路径通过 Node 串联（Recall → Filter → ReRank）
// - 宽取数 + 引擎侧排除：取数池按排除集合自适应放大，排除精确匹配
// - 关键词交集重排：确定性规则信号，非训练打分器
package flickrec

import "github.com/rushteam/flickrec/pipeline"

// 轻量 facade：便于用户直接 import "flickrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
