package domain_test

import (
	"errors"
	"testing"

	"github.com/neomorfeo/curator/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestValidateInstanceCreation(t *testing.T) {
	cases := []struct {
		name     string
		max      int
		existing int
		wantErr  bool
	}{
		{"unlimited", domain.Unlimited, 1000, false},
		{"singleton empty", 1, 0, false},
		{"singleton taken", 1, 1, true},
		{"bounded below cap", 3, 2, false},
		{"bounded at cap", 3, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			typ := domain.NewPlaylistType("ty-1", "featured", "Featured", tc.max, false, 20, 1)
			err := domain.ValidateInstanceCreation(typ, tc.existing)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var capErr *domain.CapacityError
			if !errors.As(err, &capErr) {
				t.Fatalf("expected CapacityError, got %v", err)
			}
			if capErr.Scope != domain.CapacityScopeType {
				t.Errorf("Scope = %q, want %q", capErr.Scope, domain.CapacityScopeType)
			}
			if capErr.Limit != tc.max {
				t.Errorf("Limit = %d, want %d", capErr.Limit, tc.max)
			}
		})
	}
}

func TestValidateProvinceRequirement(t *testing.T) {
	provincial := domain.NewPlaylistType("ty-p", "province", "Province", 1, true, 50, 4)
	national := domain.NewPlaylistType("ty-g", "genre", "Genre", domain.Unlimited, false, 100, 1)

	if err := domain.ValidateProvinceRequirement(provincial, domain.ProvinceGauteng); err != nil {
		t.Errorf("valid province rejected: %v", err)
	}
	if err := domain.ValidateProvinceRequirement(national, ""); err != nil {
		t.Errorf("national type without province rejected: %v", err)
	}

	if err := domain.ValidateProvinceRequirement(provincial, ""); !errors.Is(err, domain.ErrMissingProvince) {
		t.Errorf("expected ErrMissingProvince, got %v", err)
	}

	var invalid *domain.InvalidProvinceError
	if err := domain.ValidateProvinceRequirement(provincial, "atlantis"); !errors.As(err, &invalid) {
		t.Errorf("expected InvalidProvinceError for unknown province, got %v", err)
	}
	if err := domain.ValidateProvinceRequirement(national, domain.ProvinceLimpopo); !errors.As(err, &invalid) {
		t.Errorf("expected InvalidProvinceError for province on national type, got %v", err)
	}
}

func TestMaxTracksFor(t *testing.T) {
	typ := domain.NewPlaylistType("ty-1", "top-ten", "Top Ten", 1, false, 10, 3)

	if got := domain.MaxTracksFor(typ, nil); got != 10 {
		t.Errorf("no override = %d, want 10", got)
	}
	if got := domain.MaxTracksFor(typ, ptr(5)); got != 5 {
		t.Errorf("lower override = %d, want 5", got)
	}
	if got := domain.MaxTracksFor(typ, ptr(25)); got != 10 {
		t.Errorf("higher override = %d, want 10", got)
	}
}

func TestProvinces_AllValid(t *testing.T) {
	if len(domain.Provinces) != 9 {
		t.Fatalf("got %d provinces, want 9", len(domain.Provinces))
	}
	for _, p := range domain.Provinces {
		if !p.Valid() {
			t.Errorf("province %q reported invalid", p)
		}
	}
	if domain.Province("atlantis").Valid() {
		t.Error("unknown province reported valid")
	}
}

func TestPlaylistTypePatch_ChangesPolicy(t *testing.T) {
	typ := domain.NewPlaylistType("ty-1", "featured", "Featured", 1, false, 20, 2)

	if (domain.PlaylistTypePatch{Name: ptr("Spotlight"), DisplayOrder: ptr(9)}).ChangesPolicy(typ) {
		t.Error("cosmetic patch should not change policy")
	}
	if (domain.PlaylistTypePatch{MaxInstances: ptr(1)}).ChangesPolicy(typ) {
		t.Error("patch with unchanged cap should not change policy")
	}
	if !(domain.PlaylistTypePatch{MaxInstances: ptr(2)}).ChangesPolicy(typ) {
		t.Error("raising the cap should change policy")
	}
	if !(domain.PlaylistTypePatch{RequiresProvince: ptr(true)}).ChangesPolicy(typ) {
		t.Error("toggling the province rule should change policy")
	}
}

func TestScopeFor(t *testing.T) {
	provincial := domain.NewPlaylistType("ty-p", "province", "Province", 1, true, 50, 4)
	national := domain.NewPlaylistType("ty-f", "featured", "Featured", 1, false, 20, 2)

	if got := domain.ScopeFor(provincial, domain.ProvinceGauteng); got.Province != domain.ProvinceGauteng {
		t.Errorf("provincial scope = %+v", got)
	}
	if got := domain.ScopeFor(national, domain.ProvinceGauteng); got.Province != "" {
		t.Errorf("national scope should ignore province, got %+v", got)
	}
}
