package contentdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Terrain is a map an event can be played on.
type Terrain struct {
	bun.BaseModel `bun:"table:terrains,alias:t"`
	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	ClassName     string    `bun:"class_name,unique,notnull" json:"class_name"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ModPack is a named set of game mods.
type ModPack struct {
	bun.BaseModel `bun:"table:mod_packs,alias:mp"`
	ID            uuid.UUID          `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Title         string             `bun:"title,unique,notnull" json:"title"`
	CreatedAt     time.Time          `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	Revisions     []*ModPackRevision `bun:"rel:has-many,join:id=mod_pack_id" json:"revisions,omitempty"`
}

// ModPackRevision is one published version of a mod pack. Events reference
// revisions so a later update does not change what an event was planned with.
type ModPackRevision struct {
	bun.BaseModel `bun:"table:mod_pack_revisions,alias:mpr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	ModPackID     uuid.UUID `bun:"mod_pack_id,type:uuid,notnull" json:"mod_pack_id"`
	Tag           string    `bun:"tag,notnull" json:"tag"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
