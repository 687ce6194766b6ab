// Package selection validates comparison-run inputs and tracks which
// platforms a user has toggled on.
package selection

import (
	"github.com/basketwise/compare-cli/internal/model"
)

// Validate checks a pincode and platform selection against the registry
// before a run may start. It has no side effects and never touches the
// network.
func Validate(pincode string, platformIDs []string, registry *model.PlatformRegistry) error {
	if !model.ValidPincode(pincode) {
		return model.ErrInvalidPincode
	}
	if len(platformIDs) == 0 {
		return model.ErrNoPlatformSelected
	}
	if len(platformIDs) > model.MaxPlatforms {
		return model.ErrTooManyPlatforms
	}
	for _, id := range platformIDs {
		if registry.ByID(id) == nil {
			return model.ErrUnknownPlatform
		}
	}
	return nil
}

// Selection is an ordered toggle set of platform ids, capped at
// model.MaxPlatforms. The zero value is empty and ready to use.
type Selection struct {
	ids []string
}

// Toggle flips membership of id. Toggling an already-selected id deselects
// it; toggling a new id selects it unless the cap is reached, in which case
// the set is left unchanged and ErrTooManyPlatforms is returned.
func (s *Selection) Toggle(id string) error {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return nil
		}
	}
	if len(s.ids) >= model.MaxPlatforms {
		return model.ErrTooManyPlatforms
	}
	s.ids = append(s.ids, id)
	return nil
}

// Selected reports whether id is currently in the set.
func (s *Selection) Selected(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IDs returns the selected platform ids in toggle order. The returned slice
// is a copy.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns how many platforms are selected.
func (s *Selection) Len() int { return len(s.ids) }
