package service

import (
	"context"
	"strings"

	"github.com/rushteam/flickrec/core"
	"github.com/rushteam/flickrec/profile"
)

// Persona 是预置口味画像：冷启动用户可以直接套用一个 persona
// 的 Embedding 体验推荐流，不需要先积累交互。
type Persona struct {
	Title       string
	Description string
}

// ID 返回 persona 的用户 ID（persona_ 前缀 + 下划线标题）。
func (p Persona) ID() string {
	return "persona_" + strings.ReplaceAll(p.Title, " ", "_")
}

// DefaultPersonas 是内置的五个预置画像。
var DefaultPersonas = []Persona{
	{Title: "The Thrill Seeker", Description: "High stakes, explosions, and edge-of-your-seat action."},
	{Title: "The Dreamer", Description: "Sci-fi worlds, fantasy epics, and magical realism."},
	{Title: "The Detective", Description: "Mind-bending mysteries, true crime, and thrillers."},
	{Title: "The Romantic", Description: "Love stories, rom-coms, and heartwarming drama."},
	{Title: "The Indie Spirit", Description: "Art house, documentaries, and hidden gems."},
}

// Personas 返回内置 persona 列表。
func (e *Engine) Personas() []Persona {
	return DefaultPersonas
}

// EncodePersonas 编码并写入全部内置 persona：
// 画像落存储（空交互集合），Embedding 落用户集合。
// 幂等：重复执行覆盖为相同内容。
func (e *Engine) EncodePersonas(ctx context.Context) error {
	for _, p := range DefaultPersonas {
		record := core.NewAffinityRecord(p.ID())
		record.Name = p.Title

		if err := e.Profiles.Create(ctx, record); err != nil {
			return err
		}

		text := profile.BuildPersonaText(p.Title, p.Description)
		vector, err := e.Embedder.Embed(ctx, text)
		if err != nil {
			return err
		}

		if err := e.Index.Upsert(ctx, &core.VectorUpsertRequest{
			Collection: e.UsersCollection,
			ID:         record.ID,
			Vector:     vector,
			Document:   text,
		}); err != nil {
			return err
		}

		e.logger.Info().Str("persona_id", record.ID).Msg("persona encoded")
	}
	return nil
}
