package domain

// ValidateInstanceCreation checks that another playlist of typ may be
// created when existing playlists already occupy the scope.
func ValidateInstanceCreation(typ PlaylistType, existing int) error {
	if typ.MaxInstances == Unlimited || typ.MaxInstances < 0 {
		return nil
	}
	if existing >= typ.MaxInstances {
		return &CapacityError{
			Scope:   CapacityScopeType,
			ID:      typ.Slug,
			Limit:   typ.MaxInstances,
			Current: existing,
		}
	}
	return nil
}

// ValidateProvinceRequirement checks the geography rule of typ.
// A province is mandatory for province-scoped types and forbidden otherwise.
func ValidateProvinceRequirement(typ PlaylistType, province Province) error {
	if !typ.RequiresProvince {
		if province != "" {
			return &InvalidProvinceError{Province: string(province), Type: typ.Slug}
		}
		return nil
	}
	if province == "" {
		return ErrMissingProvince
	}
	if !province.Valid() {
		return &InvalidProvinceError{Province: string(province), Type: typ.Slug}
	}
	return nil
}

// MaxTracksFor returns the capacity of a new playlist of typ.
// An override may lower the type default but never raise it.
func MaxTracksFor(typ PlaylistType, override *int) int {
	if override == nil {
		return typ.DefaultMaxTracks
	}
	return min(*override, typ.DefaultMaxTracks)
}
