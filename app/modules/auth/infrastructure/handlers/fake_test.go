package authhandlers

import (
	"context"
	"time"

	authservice "github.com/Black-And-White-Club/opsboard/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
)

type FakeService struct {
	trace []string

	CompleteLoginFunc func(ctx context.Context, code string) (*authservice.Session, error)
	AuthenticateFunc  func(ctx context.Context, token string) (*authdomain.Claims, error)
}

var _ authservice.Service = (*FakeService)(nil)

func (f *FakeService) Trace() []string {
	return f.trace
}

func (f *FakeService) LoginURL(state string) string {
	f.trace = append(f.trace, "LoginURL")
	return "https://discord.test/authorize?state=" + state
}

func (f *FakeService) CompleteLogin(ctx context.Context, code string) (*authservice.Session, error) {
	f.trace = append(f.trace, "CompleteLogin")
	if f.CompleteLoginFunc != nil {
		return f.CompleteLoginFunc(ctx, code)
	}
	return &authservice.Session{
		Token:     "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &userdb.User{ID: uuid.New(), DiscordID: "42", Nickname: "Kilo", Role: authdomain.RolePlayer},
	}, nil
}

func (f *FakeService) Authenticate(ctx context.Context, token string) (*authdomain.Claims, error) {
	f.trace = append(f.trace, "Authenticate")
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, token)
	}
	return nil, authservice.ErrInvalidToken
}
