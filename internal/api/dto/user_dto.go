package dto

// CredentialsRequest payload for login and registration.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserInfoResponse describes the authenticated user. Anonymous callers
// get Authenticated=false instead of an error.
type UserInfoResponse struct {
	Authenticated bool   `json:"authenticated"`
	ID            string `json:"id,omitempty"`
	Username      string `json:"username,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Message       string `json:"message,omitempty"`
}
