package ring

import (
	"fmt"
	"strings"
)

// Device categories normalized from the provider's grouping names. The
// provider has no first-class intercom category; intercom-class hardware
// shows up under "other".
const (
	CategoryDoorbell = "doorbell"
	CategoryChime    = "chime"
	CategoryCamera   = "camera"
	CategoryOther    = "other"
	CategoryIntercom = "intercom"
)

// DeviceDescriptor is the fixed shape every provider device record is
// reduced to at the adapter boundary. ID is the handle OpenDoor needs.
type DeviceDescriptor struct {
	ID       int64
	Name     string
	Category string
	// Kind is the provider's raw device kind string, kept for the
	// intercom substring heuristic and diagnostics.
	Kind string
}

// IntercomLike reports whether the device carries an explicit intercom
// signal in its category, kind, or name.
func (d DeviceDescriptor) IntercomLike() bool {
	if d.Category == CategoryIntercom {
		return true
	}
	return strings.Contains(strings.ToLower(d.Kind), "intercom") ||
		strings.Contains(strings.ToLower(d.Name), "intercom")
}

// Label formats the device for operator-facing diagnostics.
func (d DeviceDescriptor) Label() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Category)
}

// kindCategory infers a category from a device's kind string, for listings
// the provider does not group by category.
func kindCategory(kind string) string {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "intercom"):
		return CategoryIntercom
	case strings.Contains(k, "chime"):
		return CategoryChime
	case strings.Contains(k, "doorbot") || strings.Contains(k, "doorbell"):
		return CategoryDoorbell
	case strings.Contains(k, "cam") || strings.Contains(k, "floodlight") || strings.Contains(k, "spotlight"):
		return CategoryCamera
	default:
		return CategoryOther
	}
}

// normalizeCategory maps a provider grouping name onto one of the Category
// constants.
func normalizeCategory(group string) string {
	switch strings.ToLower(group) {
	case "doorbots", "video_doorbells", "authorized_doorbots":
		return CategoryDoorbell
	case "chimes":
		return CategoryChime
	case "stickup_cams":
		return CategoryCamera
	case "intercoms":
		return CategoryIntercom
	default:
		return CategoryOther
	}
}
