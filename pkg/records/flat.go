package records

import (
	"encoding/json"
	"strings"
	"time"
)

// Columns is the fixed export header. Order and names are relied on by
// downstream spreadsheets and the organizations table.
var Columns = []string{
	"abn", "is_current", "replaced_from", "entity_status", "effective_from", "effective_to",
	"entity_type_code", "entity_type_description", "anc_status", "acnc_status_from", "acnc_status_to",
	"record_last_updated", "gst", "dgr", "main_trading_names", "other_trading_names",
	"main_business_physical_address", "tax_concession_endorsements",
	"legal_name", "other_organisation_names", "charity_website", "date_organisation_established",
	"registration_date", "charity_size", "number_of_responsible_persons", "financial_year_end",
	"operates_in", "areas_of_interest", "acnc_address",
	"nsw_organisation_number", "nsw_name", "nsw_organisation_type", "nsw_status",
	"nsw_date_registered", "nsw_date_removed", "nsw_registered_office_address", "nsw_organisation_id",
	"sources", "updated_at",
}

// flatOrganisation is the wire shape shared by the API, the cache and the
// sinks: one object with every column, null where a namespace is absent.
type flatOrganisation struct {
	ABN                         *string `json:"abn"`
	IsCurrent                   *string `json:"is_current"`
	ReplacedFrom                *string `json:"replaced_from"`
	EntityStatus                *string `json:"entity_status"`
	EffectiveFrom               *string `json:"effective_from"`
	EffectiveTo                 *string `json:"effective_to"`
	EntityTypeCode              *string `json:"entity_type_code"`
	EntityTypeDescription       *string `json:"entity_type_description"`
	ANCStatus                   *string `json:"anc_status"`
	ACNCStatusFrom              *string `json:"acnc_status_from"`
	ACNCStatusTo                *string `json:"acnc_status_to"`
	RecordLastUpdated           *string `json:"record_last_updated"`
	GST                         *string `json:"gst"`
	DGR                         *string `json:"dgr"`
	MainTradingNames            *string `json:"main_trading_names"`
	OtherTradingNames           *string `json:"other_trading_names"`
	MainBusinessPhysicalAddress *string `json:"main_business_physical_address"`
	TaxConcessionEndorsements   *string `json:"tax_concession_endorsements"`

	LegalName                   *string           `json:"legal_name"`
	OtherOrganisationNames      *string           `json:"other_organisation_names"`
	CharityWebsite              *string           `json:"charity_website"`
	DateOrganisationEstablished *string           `json:"date_organisation_established"`
	RegistrationDate            *string           `json:"registration_date"`
	CharitySize                 *string           `json:"charity_size"`
	NumberOfResponsiblePersons  *string           `json:"number_of_responsible_persons"`
	FinancialYearEnd            *string           `json:"financial_year_end"`
	OperatesIn                  map[string]string `json:"operates_in"`
	AreasOfInterest             map[string]string `json:"areas_of_interest"`
	ACNCAddress                 *Address          `json:"acnc_address"`

	NSWOrganisationNumber      *string `json:"nsw_organisation_number"`
	NSWName                    *string `json:"nsw_name"`
	NSWOrganisationType        *string `json:"nsw_organisation_type"`
	NSWStatus                  *string `json:"nsw_status"`
	NSWDateRegistered          *string `json:"nsw_date_registered"`
	NSWDateRemoved             *string `json:"nsw_date_removed"`
	NSWRegisteredOfficeAddress *string `json:"nsw_registered_office_address"`
	NSWOrganisationID          *string `json:"nsw_organisation_id"`

	Sources   []Source  `json:"sources"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func val(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (o Organisation) flatten() flatOrganisation {
	f := flatOrganisation{
		ABN:       ptr(o.Identifier()),
		Sources:   o.Sources,
		UpdatedAt: o.UpdatedAt,
	}
	if a := o.ABN; a != nil {
		f.IsCurrent = ptr(a.IsCurrent)
		f.ReplacedFrom = ptr(a.ReplacedFrom)
		f.EntityStatus = ptr(a.EntityStatus)
		f.EffectiveFrom = ptr(a.EffectiveFrom)
		f.EffectiveTo = ptr(a.EffectiveTo)
		f.EntityTypeCode = ptr(a.EntityTypeCode)
		f.EntityTypeDescription = ptr(a.EntityTypeDescription)
		f.ANCStatus = ptr(a.ANCStatus)
		f.ACNCStatusFrom = ptr(a.ACNCStatusFrom)
		f.ACNCStatusTo = ptr(a.ACNCStatusTo)
		f.RecordLastUpdated = ptr(a.RecordLastUpdated)
		f.GST = ptr(a.GST)
		f.DGR = ptr(a.DGR)
		f.MainTradingNames = ptr(a.MainTradingNames)
		f.OtherTradingNames = ptr(a.OtherTradingNames)
		f.MainBusinessPhysicalAddress = ptr(a.MainBusinessPhysicalAddress)
		f.TaxConcessionEndorsements = ptr(a.TaxConcessionEndorsements)
	}
	if c := o.ACNC; c != nil {
		f.LegalName = ptr(c.LegalName)
		f.OtherOrganisationNames = ptr(c.OtherOrganisationNames)
		f.CharityWebsite = ptr(c.Website)
		f.DateOrganisationEstablished = ptr(c.DateOrganisationEstablished)
		f.RegistrationDate = ptr(c.RegistrationDate)
		f.CharitySize = ptr(c.CharitySize)
		f.NumberOfResponsiblePersons = ptr(c.NumberOfResponsiblePersons)
		f.FinancialYearEnd = ptr(c.FinancialYearEnd)
		f.OperatesIn = c.OperatesIn
		f.AreasOfInterest = c.AreasOfInterest
		if !c.Address.IsZero() {
			addr := c.Address
			f.ACNCAddress = &addr
		}
	}
	if n := o.NSW; n != nil {
		f.NSWOrganisationNumber = ptr(n.OrganisationNumber)
		f.NSWName = ptr(n.Name)
		f.NSWOrganisationType = ptr(n.OrganisationType)
		f.NSWStatus = ptr(n.Status)
		f.NSWDateRegistered = ptr(n.DateRegistered)
		f.NSWDateRemoved = ptr(n.DateRemoved)
		f.NSWRegisteredOfficeAddress = ptr(n.RegisteredOfficeAddress)
		f.NSWOrganisationID = ptr(n.OrganisationID)
	}
	return f
}

// MarshalJSON renders the organisation as one flat object keyed by Columns.
func (o Organisation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.flatten())
}

// UnmarshalJSON restores namespaces from the flat form. A namespace is
// rebuilt only when its registry is listed in sources.
func (o *Organisation) UnmarshalJSON(data []byte) error {
	var f flatOrganisation
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*o = Organisation{Sources: f.Sources, UpdatedAt: f.UpdatedAt}
	if o.Has(SourceABN) {
		o.ABN = &ABN{
			ABN:                         val(f.ABN),
			IsCurrent:                   val(f.IsCurrent),
			ReplacedFrom:                val(f.ReplacedFrom),
			EntityStatus:                val(f.EntityStatus),
			EffectiveFrom:               val(f.EffectiveFrom),
			EffectiveTo:                 val(f.EffectiveTo),
			EntityTypeCode:              val(f.EntityTypeCode),
			EntityTypeDescription:       val(f.EntityTypeDescription),
			ANCStatus:                   val(f.ANCStatus),
			ACNCStatusFrom:              val(f.ACNCStatusFrom),
			ACNCStatusTo:                val(f.ACNCStatusTo),
			RecordLastUpdated:           val(f.RecordLastUpdated),
			GST:                         val(f.GST),
			DGR:                         val(f.DGR),
			MainTradingNames:            val(f.MainTradingNames),
			OtherTradingNames:           val(f.OtherTradingNames),
			MainBusinessPhysicalAddress: val(f.MainBusinessPhysicalAddress),
			TaxConcessionEndorsements:   val(f.TaxConcessionEndorsements),
		}
	}
	if o.Has(SourceACNC) {
		c := &ACNC{
			ABN:                         val(f.ABN),
			LegalName:                   val(f.LegalName),
			OtherOrganisationNames:      val(f.OtherOrganisationNames),
			Website:                     val(f.CharityWebsite),
			DateOrganisationEstablished: val(f.DateOrganisationEstablished),
			RegistrationDate:            val(f.RegistrationDate),
			CharitySize:                 val(f.CharitySize),
			NumberOfResponsiblePersons:  val(f.NumberOfResponsiblePersons),
			FinancialYearEnd:            val(f.FinancialYearEnd),
			OperatesIn:                  f.OperatesIn,
			AreasOfInterest:             f.AreasOfInterest,
		}
		if f.ACNCAddress != nil {
			c.Address = *f.ACNCAddress
		}
		o.ACNC = c
	}
	if o.Has(SourceNSW) {
		o.NSW = &NSW{
			OrganisationNumber:      val(f.NSWOrganisationNumber),
			Name:                    val(f.NSWName),
			OrganisationType:        val(f.NSWOrganisationType),
			Status:                  val(f.NSWStatus),
			DateRegistered:          val(f.NSWDateRegistered),
			DateRemoved:             val(f.NSWDateRemoved),
			RegisteredOfficeAddress: val(f.NSWRegisteredOfficeAddress),
			OrganisationID:          val(f.NSWOrganisationID),
		}
	}
	return nil
}

// Row returns the organisation as export cells aligned with Columns. Absent
// values are empty cells; nested values are JSON text.
func (o Organisation) Row() []string {
	f := o.flatten()
	sources := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		sources[i] = string(s)
	}
	updated := ""
	if !f.UpdatedAt.IsZero() {
		updated = f.UpdatedAt.Format(time.RFC3339)
	}
	return []string{
		val(f.ABN), val(f.IsCurrent), val(f.ReplacedFrom), val(f.EntityStatus), val(f.EffectiveFrom), val(f.EffectiveTo),
		val(f.EntityTypeCode), val(f.EntityTypeDescription), val(f.ANCStatus), val(f.ACNCStatusFrom), val(f.ACNCStatusTo),
		val(f.RecordLastUpdated), val(f.GST), val(f.DGR), val(f.MainTradingNames), val(f.OtherTradingNames),
		val(f.MainBusinessPhysicalAddress), val(f.TaxConcessionEndorsements),
		val(f.LegalName), val(f.OtherOrganisationNames), val(f.CharityWebsite), val(f.DateOrganisationEstablished),
		val(f.RegistrationDate), val(f.CharitySize), val(f.NumberOfResponsiblePersons), val(f.FinancialYearEnd),
		jsonCell(f.OperatesIn), jsonCell(f.AreasOfInterest), jsonCell(f.ACNCAddress),
		val(f.NSWOrganisationNumber), val(f.NSWName), val(f.NSWOrganisationType), val(f.NSWStatus),
		val(f.NSWDateRegistered), val(f.NSWDateRemoved), val(f.NSWRegisteredOfficeAddress), val(f.NSWOrganisationID),
		strings.Join(sources, ","), updated,
	}
}

func jsonCell[T any](v T) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return ""
	}
	return string(b)
}
