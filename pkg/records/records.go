// Package records defines the typed records produced by each registry and the
// canonical organisation record the reconciler builds from them.
//
// Each registry has its own record type (ABN, ACNC, NSW). An Organisation
// holds an optional pointer per registry namespace; a nil namespace means the
// registry did not contribute to that organisation.
package records

import (
	"slices"
	"strings"
)

// Source identifies one of the three registries.
type Source string

// Registries in reconciliation priority order.
const (
	// SourceABN is the Australian Business Register (primary, keyed by ABN).
	SourceABN Source = "abn"
	// SourceACNC is the ACNC charity register (secondary, keyed by ABN and legal name).
	SourceACNC Source = "acnc"
	// SourceNSW is the NSW Fair Trading associations register (tertiary, keyed by name).
	SourceNSW Source = "nsw"
)

// Sources returns the registries in reconciliation priority order.
func Sources() []Source {
	return []Source{SourceABN, SourceACNC, SourceNSW}
}

// String returns the string representation of a source.
func (s Source) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known registries.
func (s Source) IsValid() bool {
	return slices.Contains(Sources(), s)
}

// NormalizeName folds a free-text organisation name into the matching key
// used across registries: surrounding whitespace trimmed, upper-cased.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// ABN is an entity from the Australian Business Register. The JSON-typed
// fields (GST, DGR, trading names, addresses, endorsements) hold the raw JSON
// text of the register's nested structures.
type ABN struct {
	ABN                         string `json:"abn"`
	IsCurrent                   string `json:"is_current,omitempty"`
	ReplacedFrom                string `json:"replaced_from,omitempty"`
	EntityStatus                string `json:"entity_status,omitempty"`
	EffectiveFrom               string `json:"effective_from,omitempty"`
	EffectiveTo                 string `json:"effective_to,omitempty"`
	EntityTypeCode              string `json:"entity_type_code,omitempty"`
	EntityTypeDescription       string `json:"entity_type_description,omitempty"`
	ANCStatus                   string `json:"anc_status,omitempty"`
	ACNCStatusFrom              string `json:"acnc_status_from,omitempty"`
	ACNCStatusTo                string `json:"acnc_status_to,omitempty"`
	RecordLastUpdated           string `json:"record_last_updated,omitempty"`
	GST                         string `json:"gst,omitempty"`
	DGR                         string `json:"dgr,omitempty"`
	MainTradingNames            string `json:"main_trading_names,omitempty"`
	OtherTradingNames           string `json:"other_trading_names,omitempty"`
	MainBusinessPhysicalAddress string `json:"main_business_physical_address,omitempty"`
	TaxConcessionEndorsements   string `json:"tax_concession_endorsements,omitempty"`
}

// Address is a postal address as published by the ACNC register.
type Address struct {
	Type     string `json:"type,omitempty"`
	Line1    string `json:"line_1,omitempty"`
	Line2    string `json:"line_2,omitempty"`
	Line3    string `json:"line_3,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ACNC is a registered charity from the ACNC register.
type ACNC struct {
	ABN                         string            `json:"abn"`
	LegalName                   string            `json:"legal_name,omitempty"`
	OtherOrganisationNames      string            `json:"other_organisation_names,omitempty"`
	Website                     string            `json:"charity_website,omitempty"`
	DateOrganisationEstablished string            `json:"date_organisation_established,omitempty"`
	RegistrationDate            string            `json:"registration_date,omitempty"`
	CharitySize                 string            `json:"charity_size,omitempty"`
	NumberOfResponsiblePersons  string            `json:"number_of_responsible_persons,omitempty"`
	FinancialYearEnd            string            `json:"financial_year_end,omitempty"`
	OperatesIn                  map[string]string `json:"operates_in,omitempty"`
	AreasOfInterest             map[string]string `json:"areas_of_interest,omitempty"`
	Address                     Address           `json:"address"`
}

// NSW is an incorporated association from the NSW Fair Trading register.
type NSW struct {
	OrganisationNumber      string `json:"organisation_number,omitempty"`
	Name                    string `json:"name"`
	OrganisationType        string `json:"organisation_type,omitempty"`
	Status                  string `json:"status,omitempty"`
	DateRegistered          string `json:"date_registered,omitempty"`
	DateRemoved             string `json:"date_removed,omitempty"`
	RegisteredOfficeAddress string `json:"registered_office_address,omitempty"`
	OrganisationID          string `json:"organisation_id,omitempty"`
}

// Set carries raw records from one or more extraction jobs, one slice per
// registry. A single job only populates the slice for its own registry.
type Set struct {
	ABN  []ABN  `json:"abn,omitempty"`
	ACNC []ACNC `json:"acnc,omitempty"`
	NSW  []NSW  `json:"nsw,omitempty"`
}

// Count returns the number of records held for src.
func (s Set) Count(src Source) int {
	switch src {
	case SourceABN:
		return len(s.ABN)
	case SourceACNC:
		return len(s.ACNC)
	case SourceNSW:
		return len(s.NSW)
	}
	return 0
}

// Len returns the number of records across all registries.
func (s Set) Len() int {
	return len(s.ABN) + len(s.ACNC) + len(s.NSW)
}

// Append concatenates other onto s, preserving each registry's order.
func (s *Set) Append(other Set) {
	s.ABN = append(s.ABN, other.ABN...)
	s.ACNC = append(s.ACNC, other.ACNC...)
	s.NSW = append(s.NSW, other.NSW...)
}
