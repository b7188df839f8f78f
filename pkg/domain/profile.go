package domain

// Profile is the identity attached 1:1 to an authenticated session. It is
// replaced wholesale on update, never partially mutated.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
