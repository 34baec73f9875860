package domain

import "time"

// Unlimited marks a playlist type without an instance cap.
const Unlimited = -1

// PlaylistType is the policy template a playlist is created from.
// Slug never changes; MaxInstances and RequiresProvince are frozen once
// playlists of the type exist.
type PlaylistType struct {
	ID               string
	Slug             string
	Name             string
	MaxInstances     int
	RequiresProvince bool
	DefaultMaxTracks int
	DisplayOrder     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPlaylistType creates a playlist type definition.
func NewPlaylistType(id, slug, name string, maxInstances int, requiresProvince bool, defaultMaxTracks, displayOrder int) PlaylistType {
	now := time.Now().UTC()
	return PlaylistType{
		ID:               id,
		Slug:             slug,
		Name:             name,
		MaxInstances:     maxInstances,
		RequiresProvince: requiresProvince,
		DefaultMaxTracks: defaultMaxTracks,
		DisplayOrder:     displayOrder,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// PlaylistTypePatch carries optional changes to a playlist type.
// A nil field leaves the stored value untouched.
type PlaylistTypePatch struct {
	Name             *string
	MaxInstances     *int
	RequiresProvince *bool
	DefaultMaxTracks *int
	DisplayOrder     *int
}

// ChangesPolicy reports whether the patch touches attributes that are
// frozen once the type has playlists.
func (p PlaylistTypePatch) ChangesPolicy(current PlaylistType) bool {
	if p.MaxInstances != nil && *p.MaxInstances != current.MaxInstances {
		return true
	}
	if p.RequiresProvince != nil && *p.RequiresProvince != current.RequiresProvince {
		return true
	}
	return false
}

// Apply returns a copy of t with the patch applied.
func (p PlaylistTypePatch) Apply(t PlaylistType) PlaylistType {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.MaxInstances != nil {
		t.MaxInstances = *p.MaxInstances
	}
	if p.RequiresProvince != nil {
		t.RequiresProvince = *p.RequiresProvince
	}
	if p.DefaultMaxTracks != nil {
		t.DefaultMaxTracks = *p.DefaultMaxTracks
	}
	if p.DisplayOrder != nil {
		t.DisplayOrder = *p.DisplayOrder
	}
	t.UpdatedAt = time.Now().UTC()
	return t
}

// PlaylistStatus represents the serving state of a playlist.
type PlaylistStatus string

const (
	PlaylistDraft    PlaylistStatus = "draft"
	PlaylistActive   PlaylistStatus = "active"
	PlaylistArchived PlaylistStatus = "archived"
)

// Valid reports whether s is a known playlist status.
func (s PlaylistStatus) Valid() bool {
	switch s {
	case PlaylistDraft, PlaylistActive, PlaylistArchived:
		return true
	}
	return false
}

// Playlist is a curated playlist instance of a PlaylistType.
// CurrentTracks caches the number of membership rows and is only written
// by membership changes.
type Playlist struct {
	ID            string
	TypeID        string
	Name          string
	Description   string
	Status        PlaylistStatus
	Province      Province
	MaxTracks     int
	CurrentTracks int
	Order         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPlaylist creates a playlist in the draft state with no tracks.
func NewPlaylist(id string, typ PlaylistType, name, description string, province Province, maxTracks, order int) Playlist {
	now := time.Now().UTC()
	return Playlist{
		ID:          id,
		TypeID:      typ.ID,
		Name:        name,
		Description: description,
		Status:      PlaylistDraft,
		Province:    province,
		MaxTracks:   maxTracks,
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// InstanceScope selects the playlists an instance cap applies to.
// Province is only set for types that require one.
type InstanceScope struct {
	TypeID   string
	Province Province
}

// ScopeFor returns the instance-cap scope of a new playlist of typ.
func ScopeFor(typ PlaylistType, province Province) InstanceScope {
	scope := InstanceScope{TypeID: typ.ID}
	if typ.RequiresProvince {
		scope.Province = province
	}
	return scope
}
