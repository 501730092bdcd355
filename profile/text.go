package profile

import (
	"strings"

	"github.com/rushteam/flickrec/core"
)

// Change 标记一次画像变更的类别，用于决定是否需要重新 Embedding。
type Change int

const (
	ChangeCreated   Change = iota // 首次创建 / persona 编码
	ChangeGenres                  // 类型偏好变更
	ChangeRating                  // 评分变更（不触发重 Embedding）
	ChangeWatchlist               // 想看清单变更
	ChangeShown                   // 曝光同步
	ChangeKeywords                // 关键词计数累加
)

// BuildProfileText 把画像转为送入 Embedding 协作方的文本。
//
// 只由类型偏好决定：关键词保留给重排信号，刻意不进入相似度信号。
// 空类型集返回空字符串。
func BuildProfileText(record *core.AffinityRecord) string {
	if record == nil || len(record.GenrePrefs) == 0 {
		return ""
	}
	return "Genres: " + strings.Join(record.GenrePrefs, ", ")
}

// BuildPersonaText 把 persona 标题与描述拼成编码文本。
func BuildPersonaText(title, description string) string {
	return title + ". " + description
}

// NeedsReembed 判断一次变更后是否需要重新计算画像 Embedding。
//
// 只有首次创建与类型偏好变更会触发：评分、想看清单、曝光同步、
// 关键词累加都不改变 Embedding 文本。
func NeedsReembed(change Change) bool {
	return change == ChangeCreated || change == ChangeGenres
}
