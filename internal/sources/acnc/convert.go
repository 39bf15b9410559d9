package acnc

import (
	"fmt"
	"strconv"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// response is the CKAN action envelope.
type response struct {
	Success bool `json:"success"`
	Result  struct {
		Records []row `json:"records"`
		Total   int   `json:"total"`
	} `json:"result"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// row is one datastore record. Column values arrive as strings, numbers or
// null depending on the column type.
type row map[string]any

func (r row) str(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// operatesInColumns maps operates_in keys to register columns.
var operatesInColumns = [][2]string{
	{"act", "Operates_in_ACT"},
	{"nsw", "Operates_in_NSW"},
	{"nt", "Operates_in_NT"},
	{"qld", "Operates_in_QLD"},
	{"sa", "Operates_in_SA"},
	{"tas", "Operates_in_TAS"},
	{"vic", "Operates_in_VIC"},
	{"wa", "Operates_in_WA"},
	{"countries", "Operates_in_Countries"},
}

// areasOfInterestColumns maps areas_of_interest keys to register columns.
// Column names keep the register's own spelling.
var areasOfInterestColumns = [][2]string{
	{"pbi", "PBI"},
	{"hpc", "HPC"},
	{"preventing_or_relieving_suffering_of_animals", "Preventing_or_relieving_suffering_of_animals"},
	{"aboriginal_or_tsi", "Aboriginal_or_TSI"},
	{"adults", "Adults"},
	{"advancing_health", "Advancing_health"},
	{"advancing_education", "Advancing_education"},
	{"advancing_religion", "Advancing_religion"},
	{"advancing_culture", "Advancing_culture"},
	{"advancing_social_or_public_welfare", "Advancing_social_or_public_welfare"},
	{"advancing_natural_environment", "Advancing_natual_environment"},
	{"advancing_security_or_safety_of_australia_or_australian_public", "Advancing_security_or_safety_of_Australia_or_Australian_public"},
	{"aged_persons", "Aged_Persons"},
	{"children", "Children"},
	{"communities_overseas", "Communities_Overseas"},
	{"early_childhood", "Early_Childhood"},
	{"ethnic_groups", "Ethnic_Groups"},
	{"families", "Families"},
	{"females", "Females"},
	{"financially_disadvantaged", "Financially_Disadvantaged"},
	{"gay_lesbian_bisexual", "Gay_Lesbian_Bisexual"},
	{"general_community_in_australia", "General_Community_in_Australia"},
	{"males", "Males"},
	{"migrants_refugees_or_asylum_seekers", "Migrants_Refugees_or_Asylum_Seekers"},
	{"other_beneficiaries", "Other_Beneficiaries"},
	{"other_charities", "Other_Charities"},
	{"promote_or_oppose_a_change_to_law_government_poll_or_prac", "Promote_or_oppose_a_change_to_law__government_poll_or_prac"},
	{"promoting_or_protecting_human_rights", "Promoting_or_protecting_human_rights"},
	{"promoting_reconciliation_mutual_respect_and_tolerance", "Promoting_reconciliation__mutual_respect_and_tolerance"},
	{"purposes_beneficial_to_the_general_public_and_other_analogous", "Purposes_beneficial_to_ther_general_public_and_other_analogous"},
	{"people_at_risk_of_homelessness", "People_at_risk_of_homelessness"},
	{"people_with_chronic_illness", "People_with_Chronic_Illness"},
	{"people_with_disabilities", "People_with_Disabilities"},
	{"pre_post_release_offenders", "Pre_Post_Release_Offenders"},
	{"rural_regional_remote_communities", "Rural_Regional_Remote_Communities"},
	{"unemployed_person", "Unemployed_Person"},
	{"veterans_or_their_families", "Veterans_or_their_families"},
	{"victims_of_crime", "Victims_of_crime"},
	{"victims_of_disasters", "Victims_of_Disasters"},
	{"youth", "Youth"},
}

func (r row) columns(cols [][2]string) map[string]string {
	out := make(map[string]string)
	for _, c := range cols {
		if v := r.str(c[1]); v != "" {
			out[c[0]] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r row) charity() records.ACNC {
	return records.ACNC{
		ABN:                         r.str("ABN"),
		LegalName:                   r.str("Charity_Legal_Name"),
		OtherOrganisationNames:      r.str("Other_Organisation_Names"),
		Website:                     r.str("Charity_Website"),
		DateOrganisationEstablished: r.str("Date_Organisation_Established"),
		RegistrationDate:            r.str("Registration_Date"),
		CharitySize:                 r.str("Charity_Size"),
		NumberOfResponsiblePersons:  r.str("Number_of_Responsible_Persons"),
		FinancialYearEnd:            r.str("Financial_Year_End"),
		OperatesIn:                  r.columns(operatesInColumns),
		AreasOfInterest:             r.columns(areasOfInterestColumns),
		Address: records.Address{
			Type:     r.str("Address_Type"),
			Line1:    r.str("Address_Line_1"),
			Line2:    r.str("Address_Line_2"),
			Line3:    r.str("Address_Line_3"),
			City:     r.str("Town_City"),
			State:    r.str("State"),
			Postcode: r.str("Postcode"),
			Country:  r.str("Country"),
		},
	}
}
