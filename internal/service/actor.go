package service

// Actor identifies the authenticated caller of a use case. The id and role
// come from the verified token claims; services never re-check tokens.
type Actor struct {
	ID   uint
	Role string
}
