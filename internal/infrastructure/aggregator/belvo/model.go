package belvo

type tokenRequest struct {
	ID             string       `json:"id"`
	Password       string       `json:"password"`
	Scopes         string       `json:"scopes"`
	StaleIn        string       `json:"stale_in"`
	FetchResources []string     `json:"fetch_resources"`
	Widget         widgetConfig `json:"widget"`
}

type widgetConfig struct {
	Purpose            string        `json:"purpose"`
	OpenFinanceFeature string        `json:"openfinance_feature"`
	ExternalID         string        `json:"external_id"`
	CallbackURLs       callbackURLs  `json:"callback_urls"`
	Consent            consentConfig `json:"consent"`
}

type callbackURLs struct {
	Success string `json:"success"`
	Exit    string `json:"exit"`
	Event   string `json:"event"`
}

type consentConfig struct {
	TermsAndConditionsURL string               `json:"terms_and_conditions_url"`
	Permissions           []string             `json:"permissions"`
	IdentificationInfo    []identificationInfo `json:"identification_info"`
}

type identificationInfo struct {
	Type   string `json:"type"`
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
