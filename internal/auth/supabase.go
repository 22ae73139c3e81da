package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// SupabaseProvider delegates credentials to Supabase Auth (GoTrue). Tokens
// it returns are signed with the project's JWT secret, so
// Tokens.ValidateToken accepts them when configured with that secret.
type SupabaseProvider struct {
	client gotrue.Client
}

// NewSupabaseProvider talks to the GoTrue API under baseURL (the project URL,
// e.g. https://<ref>.supabase.co).
func NewSupabaseProvider(baseURL, anonKey string) *SupabaseProvider {
	client := gotrue.New("", anonKey).
		WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithClient(http.Client{Timeout: 10 * time.Second})
	return &SupabaseProvider{client: client}
}

func (p *SupabaseProvider) Name() string { return "supabase" }

// SignUp creates the user. Full name and phone travel as user metadata.
// With email confirmation on, GoTrue answers with the bare user and no session.
func (p *SupabaseProvider) SignUp(ctx context.Context, in SignUpInput) (*Identity, error) {
	data := map[string]interface{}{"full_name": in.FullName}
	if in.Phone != nil {
		data["phone"] = *in.Phone
	}
	resp, err := p.client.Signup(types.SignupRequest{
		Email:    normalizeEmail(in.Email),
		Password: in.Password,
		Data:     data,
	})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "user_already_exists") || strings.Contains(msg, "already registered") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("supabase sign-up: %w", err)
	}

	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	if user.ID == uuid.Nil {
		return nil, fmt.Errorf("supabase sign-up returned no user")
	}
	return &Identity{
		ID:          user.ID.String(),
		Email:       user.Email,
		AccessToken: resp.AccessToken,
		ExpiresIn:   int64(resp.ExpiresIn),
	}, nil
}

// SignIn exchanges email and password for a session. GoTrue answers bad
// credentials with 400 (invalid_grant).
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := p.client.SignInWithEmailPassword(normalizeEmail(email), password)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "status code 400") || strings.Contains(msg, "status code 401") {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("supabase sign-in: %w", err)
	}
	return &Identity{
		ID:          resp.User.ID.String(),
		Email:       resp.User.Email,
		AccessToken: resp.AccessToken,
		ExpiresIn:   int64(resp.ExpiresIn),
	}, nil
}
