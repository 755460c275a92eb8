package handler

import (
	"time"

	"abportal/internal/auth/gate"
	"abportal/internal/auth/models"
)

type PrincipalResponse struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Device    string    `json:"device,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
	Principal   PrincipalResponse `json:"principal"`
}

// SessionResponse mirrors the gate decision: state is loading, allowed or redirect.
type SessionResponse struct {
	State      string             `json:"state"`
	RedirectTo string             `json:"redirect_to,omitempty"`
	Principal  *PrincipalResponse `json:"principal,omitempty"`
}

func toPrincipalResponse(p models.Principal) PrincipalResponse {
	return PrincipalResponse{
		UserID:    p.UserID.String(),
		SessionID: p.SessionID.String(),
		Name:      p.Name,
		Email:     p.Email,
		Device:    p.Device,
		ExpiresAt: p.ExpiresAt,
	}
}

func toLoginResponse(r *models.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
		ExpiresIn:   int64(r.ExpiresIn.Seconds()),
		Principal:   toPrincipalResponse(r.Principal),
	}
}

func toSessionResponse(d gate.Decision, state models.AuthState) SessionResponse {
	resp := SessionResponse{State: d.Kind.String(), RedirectTo: d.RedirectTo}
	if d.Kind == gate.Allowed {
		p := toPrincipalResponse(*state.Principal)
		resp.Principal = &p
	}
	return resp
}
