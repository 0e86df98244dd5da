package domain

// Authenticatable is the capability the login flow needs from an
// account: a stable id and password verification. User itself stays a
// plain data entity; an adapter in the service layer implements this.
type Authenticatable interface {
	AuthID() int64
	VerifyPassword(password string) error
}
