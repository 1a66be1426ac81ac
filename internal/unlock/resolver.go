package unlock

import (
	"strings"

	"ringlock/internal/ring"
)

// Resolver picks the device to actuate out of a session's device snapshot.
// The provider has no first-class intercom category, so resolution is a
// documented heuristic: a configured name always wins, explicit intercom
// signals beat bucket inference, and the catch-all "other" bucket is the
// last resort because the provider files intercoms there.
type Resolver struct {
	// TargetName, when set, selects the device by case-insensitive exact
	// name match and overrides every heuristic. This is the operator's
	// disambiguation tool when the heuristic picks the wrong device.
	TargetName string
}

// Resolve returns the selected device, or ok == false when no candidate
// qualifies.
func (r Resolver) Resolve(devices []ring.DeviceDescriptor) (ring.DeviceDescriptor, bool) {
	if r.TargetName != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Name, r.TargetName) {
				return d, true
			}
		}
	}

	var explicit, bucket []ring.DeviceDescriptor
	for _, d := range devices {
		switch {
		case d.IntercomLike():
			explicit = append(explicit, d)
		case d.Category == ring.CategoryOther:
			bucket = append(bucket, d)
		}
	}
	if len(explicit) > 0 {
		return explicit[0], true
	}
	if len(bucket) > 0 {
		return bucket[0], true
	}
	return ring.DeviceDescriptor{}, false
}

// Candidates lists every device as "Name (category)" for the diagnostic
// returned when resolution finds nothing.
func Candidates(devices []ring.DeviceDescriptor) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Label())
	}
	return out
}
