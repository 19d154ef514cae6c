package aggregate

import (
	"unicode/utf8"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/textmatch"
)

const (
	// Normalized tokens at least this long merge when one is a prefix of
	// the other, catching truncated re-entries of long product names.
	prefixMatchMinLength = 20

	diceMergeThreshold = 0.90
)

// Metrics holds the summable performance counters of a product line record.
type Metrics struct {
	Clicks    int     `json:"clicks"`
	AddToCart int     `json:"add_to_cart"`
	Orders    int     `json:"orders"`
	ItemsSold int     `json:"items_sold"`
	Revenue   float64 `json:"revenue"`
}

func (m *Metrics) add(rec db.ProductLineRecord) {
	m.Clicks += rec.Clicks
	m.AddToCart += rec.AddToCart
	m.Orders += rec.Orders
	m.ItemsSold += rec.ItemsSold
	m.Revenue += rec.Revenue
}

// Group is one resolved product identity with summed metrics. Derived, never
// persisted.
type Group struct {
	DisplayName string  `json:"display_name"`
	ExternalID  *string `json:"external_id,omitempty"`
	Metrics
	Appearances int `json:"appearances"`

	normalized string
	canonical  bool
}

// Resolve partitions records into identity groups in a single pass over the
// storage order. Records carrying a persisted canonical name group by that
// name exactly; the rest fall back to the external-id map and then to the
// first existing group whose normalized token is a long shared prefix or
// scores above the Dice threshold. First match wins, not best match.
func Resolve(records []db.ProductLineRecord) []Group {
	groups := make([]Group, 0, len(records))
	externalIdx := make(map[string]int)
	canonicalIdx := make(map[string]int)

	for _, rec := range records {
		name := rec.RawName
		if rec.CanonicalName != nil && *rec.CanonicalName != "" {
			name = *rec.CanonicalName
		}
		normalized := textmatch.Normalize(name)

		if rec.ExternalID != nil && *rec.ExternalID != "" {
			if idx, ok := externalIdx[*rec.ExternalID]; ok {
				merge(&groups[idx], rec, name, normalized)
				continue
			}
		}

		if rec.CanonicalName != nil && *rec.CanonicalName != "" {
			if idx, ok := canonicalIdx[*rec.CanonicalName]; ok {
				merge(&groups[idx], rec, name, normalized)
				registerExternalID(groups, idx, externalIdx)
				continue
			}
			idx := appendGroup(&groups, rec, name, normalized, true)
			canonicalIdx[*rec.CanonicalName] = idx
			registerExternalID(groups, idx, externalIdx)
			continue
		}

		matched := false
		for idx := range groups {
			if conflictingExternalIDs(groups[idx].ExternalID, rec.ExternalID) {
				continue
			}
			if matchByName(groups[idx].normalized, normalized) {
				merge(&groups[idx], rec, name, normalized)
				registerExternalID(groups, idx, externalIdx)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		idx := appendGroup(&groups, rec, name, normalized, false)
		registerExternalID(groups, idx, externalIdx)
	}

	return groups
}

// conflictingExternalIDs reports whether both sides carry a non-empty
// external id and they disagree. Such records are distinct products no
// matter how similar their names are.
func conflictingExternalIDs(a, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	return *a != "" && *b != "" && *a != *b
}

func matchByName(a, b string) bool {
	shorter, longer := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	if utf8.RuneCountInString(shorter) >= prefixMatchMinLength && hasPrefix(longer, shorter) {
		return true
	}
	return textmatch.DiceSimilarity(a, b) > diceMergeThreshold
}

func hasPrefix(longer, shorter string) bool {
	return len(longer) >= len(shorter) && longer[:len(shorter)] == shorter
}

func appendGroup(groups *[]Group, rec db.ProductLineRecord, name, normalized string, canonical bool) int {
	group := Group{
		DisplayName: name,
		Appearances: 1,
		normalized:  normalized,
		canonical:   canonical,
	}
	group.Metrics.add(rec)
	if rec.ExternalID != nil && *rec.ExternalID != "" {
		id := *rec.ExternalID
		group.ExternalID = &id
	}
	*groups = append(*groups, group)
	return len(*groups) - 1
}

func merge(group *Group, rec db.ProductLineRecord, name, normalized string) {
	group.Metrics.add(rec)
	group.Appearances++

	if group.ExternalID == nil && rec.ExternalID != nil && *rec.ExternalID != "" {
		id := *rec.ExternalID
		group.ExternalID = &id
	}

	// Bias the display name toward the most concise spelling. Canonical
	// groups keep their durably chosen name.
	if !group.canonical && utf8.RuneCountInString(normalized) < utf8.RuneCountInString(group.normalized) {
		group.DisplayName = name
		group.normalized = normalized
	}
}

func registerExternalID(groups []Group, idx int, externalIdx map[string]int) {
	id := groups[idx].ExternalID
	if id == nil || *id == "" {
		return
	}
	if _, ok := externalIdx[*id]; !ok {
		externalIdx[*id] = idx
	}
}
