package tenantprofile

// profileRequest is the writable subset of Profile accepted on PUT.
type profileRequest struct {
	BusinessTypeID           string   `json:"business_type_id"`
	IndustryID               string   `json:"industry_id"`
	BusinessName             string   `json:"business_name"`
	BusinessEmail            string   `json:"business_email"`
	BusinessPhoneCountryCode string   `json:"business_phone_country_code"`
	BusinessPhone            string   `json:"business_phone"`
	WebsiteURL               string   `json:"website_url"`
	Address                  Address  `json:"address"`
	Branding                 Branding `json:"branding"`
}

func (req profileRequest) profile() Profile {
	return Profile{
		BusinessTypeID:           req.BusinessTypeID,
		IndustryID:               req.IndustryID,
		BusinessName:             req.BusinessName,
		BusinessEmail:            req.BusinessEmail,
		BusinessPhoneCountryCode: req.BusinessPhoneCountryCode,
		BusinessPhone:            req.BusinessPhone,
		WebsiteURL:               req.WebsiteURL,
		Address:                  req.Address,
		Branding:                 req.Branding,
	}
}

type logoResponse struct {
	URL string `json:"url"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}
