package domain

// Province is one of the nine fixed geographic regions a province-scoped
// playlist can be bound to.
type Province string

const (
	ProvinceEasternCape  Province = "eastern-cape"
	ProvinceFreeState    Province = "free-state"
	ProvinceGauteng      Province = "gauteng"
	ProvinceKwaZuluNatal Province = "kwazulu-natal"
	ProvinceLimpopo      Province = "limpopo"
	ProvinceMpumalanga   Province = "mpumalanga"
	ProvinceNorthernCape Province = "northern-cape"
	ProvinceNorthWest    Province = "north-west"
	ProvinceWesternCape  Province = "western-cape"
)

// Provinces lists every accepted province value.
var Provinces = []Province{
	ProvinceEasternCape,
	ProvinceFreeState,
	ProvinceGauteng,
	ProvinceKwaZuluNatal,
	ProvinceLimpopo,
	ProvinceMpumalanga,
	ProvinceNorthernCape,
	ProvinceNorthWest,
	ProvinceWesternCape,
}

// Valid reports whether p is one of the enumerated provinces.
func (p Province) Valid() bool {
	for _, known := range Provinces {
		if p == known {
			return true
		}
	}
	return false
}
