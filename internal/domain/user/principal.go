package user

// Principal is the caller identity resolved from a verified session.
type Principal struct {
	UserID string
	Email  string
}
