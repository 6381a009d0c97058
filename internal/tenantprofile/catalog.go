package tenantprofile

// BusinessType is an entry of the business-type picker.
type BusinessType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Industry is an entry of the industry picker.
type Industry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var businessTypes = []BusinessType{
	{ID: "service_provider", Name: "Service Provider", Description: "You deliver services to clients under contract"},
	{ID: "buyer", Name: "Buyer", Description: "You procure services from vendors"},
	{ID: "both", Name: "Both", Description: "You buy and sell services"},
}

var industries = []Industry{
	{ID: "healthcare", Name: "Healthcare"},
	{ID: "facility_management", Name: "Facility Management"},
	{ID: "it_services", Name: "IT Services"},
	{ID: "manufacturing", Name: "Manufacturing"},
	{ID: "construction", Name: "Construction"},
	{ID: "education", Name: "Education"},
	{ID: "financial_services", Name: "Financial Services"},
	{ID: "hospitality", Name: "Hospitality"},
	{ID: "logistics", Name: "Logistics"},
	{ID: "retail", Name: "Retail"},
	{ID: "other", Name: "Other"},
}

// BusinessTypes returns the picker entries in display order.
func BusinessTypes() []BusinessType {
	out := make([]BusinessType, len(businessTypes))
	copy(out, businessTypes)
	return out
}

// Industries returns the picker entries in display order.
func Industries() []Industry {
	out := make([]Industry, len(industries))
	copy(out, industries)
	return out
}

func knownBusinessType(id string) bool {
	for _, bt := range businessTypes {
		if bt.ID == id {
			return true
		}
	}
	return false
}

func knownIndustry(id string) bool {
	for _, in := range industries {
		if in.ID == id {
			return true
		}
	}
	return false
}
