package records

import (
	"encoding/json"
	"slices"
	"time"
)

// Organisation is the canonical record produced by reconciliation. Each
// namespace pointer is nil when that registry did not contribute.
type Organisation struct {
	ABN  *ABN
	ACNC *ACNC
	NSW  *NSW

	// Sources lists contributing registries in priority order (abn, acnc, nsw).
	Sources []Source

	// UpdatedAt is the merge timestamp. It is not part of record identity.
	UpdatedAt time.Time
}

// FromABN seeds an organisation from a business register entity.
func FromABN(r ABN, at time.Time) Organisation {
	return Organisation{ABN: &r, Sources: []Source{SourceABN}, UpdatedAt: at}
}

// FromACNC seeds an organisation from a charity register record.
func FromACNC(r ACNC, at time.Time) Organisation {
	return Organisation{ACNC: &r, Sources: []Source{SourceACNC}, UpdatedAt: at}
}

// FromNSW seeds an organisation from an associations register record.
func FromNSW(r NSW, at time.Time) Organisation {
	return Organisation{NSW: &r, Sources: []Source{SourceNSW}, UpdatedAt: at}
}

// WithACNC merges the charity namespace in and records provenance.
func (o *Organisation) WithACNC(r ACNC) {
	o.ACNC = &r
	o.addSource(SourceACNC)
}

// WithNSW merges the associations namespace in and records provenance.
func (o *Organisation) WithNSW(r NSW) {
	o.NSW = &r
	o.addSource(SourceNSW)
}

func (o *Organisation) addSource(src Source) {
	if !slices.Contains(o.Sources, src) {
		o.Sources = append(o.Sources, src)
	}
}

// Has reports whether src contributed to the organisation.
func (o Organisation) Has(src Source) bool {
	return slices.Contains(o.Sources, src)
}

// Identifier returns the ABN from the business or charity namespace.
func (o Organisation) Identifier() string {
	if o.ABN != nil && o.ABN.ABN != "" {
		return o.ABN.ABN
	}
	if o.ACNC != nil {
		return o.ACNC.ABN
	}
	return ""
}

// Name returns the best available display name.
func (o Organisation) Name() string {
	if o.ACNC != nil && o.ACNC.LegalName != "" {
		return o.ACNC.LegalName
	}
	if o.NSW != nil {
		return o.NSW.Name
	}
	return ""
}

// Key is the sink identity: the ABN when present, otherwise the normalized
// associations register name prefixed with "name:".
func (o Organisation) Key() string {
	if id := o.Identifier(); id != "" {
		return id
	}
	if o.NSW != nil {
		return "name:" + NormalizeName(o.NSW.Name)
	}
	return ""
}

// Equal compares two organisations ignoring UpdatedAt.
func (o Organisation) Equal(other Organisation) bool {
	a, b := o, other
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
