package models

// ValidateRequest is the registration request body
type ValidateRequest struct {
	OrganizationID string  `json:"organizationId"`
	SponsorID      string  `json:"sponsorId"`
	Email          string  `json:"email"`
	SponsorName    *string `json:"sponsorName,omitempty"`
	Phone          *string `json:"phone,omitempty"`
}

// ValidateResponse reports whether the roster accepted the registration pair
type ValidateResponse struct {
	Found bool `json:"found"`
}

// MemberInfoResponse is the roster-derived display projection for one member
type MemberInfoResponse struct {
	OrganizationID string  `json:"organizationId"`
	SponsorID      string  `json:"sponsorId"`
	DisplayName    string  `json:"displayName"`
	SponsorName    *string `json:"sponsorName,omitempty"`
}

// ActivateRequest is the activation request body
type ActivateRequest struct {
	Email string `json:"email"`
}

// ActivateResponse reports the activation outcome
type ActivateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ActiveStatusResponse answers the is-active entitlement query
type ActiveStatusResponse struct {
	IsActive bool `json:"isActive"`
}

// PaidStatusResponse answers the is-paid entitlement query
type PaidStatusResponse struct {
	IsPaid bool `json:"isPaid"`
}

// CreatePaymentRequest asks for a checkout session for a plan
type CreatePaymentRequest struct {
	Email string   `json:"email"`
	Plan  PlanType `json:"plan"`
}

// CreatePaymentResponse carries the provider-issued redirect URL
type CreatePaymentResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// PriceTable is the request and response shape for plan price configuration.
// Amounts are integer minor currency units; nil fields are left unchanged.
type PriceTable struct {
	Monthly *int64 `json:"monthly,omitempty"`
	Yearly  *int64 `json:"yearly,omitempty"`
}

// SuccessStoryRequest is the body for creating or editing a success story
type SuccessStoryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

// CollectionResponse wraps list results with a count
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}
