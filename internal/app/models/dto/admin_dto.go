package dto

// MaxCreditGrant caps a single credit grant
const MaxCreditGrant = 100000

// AddCreditsRequest grants credits to a user
type AddCreditsRequest struct {
	Amount int `json:"amount" binding:"required,gt=0,lte=100000"`
}

// SetAdminRequest grants or revokes admin rights
type SetAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

// StatsResponse is the admin dashboard summary
type StatsResponse struct {
	Users              int64 `json:"users"`
	Admins             int64 `json:"admins"`
	Explanations       int64 `json:"explanations"`
	RecentExplanations int64 `json:"recentExplanations"`
	CreditsOutstanding int64 `json:"creditsOutstanding"`
	Lessons            int64 `json:"lessons"`
}
