package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/opsboard/app/modules/user/application"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
)

// ------------------------
// Fake JWT Provider
// ------------------------

type FakeJWTProvider struct {
	trace []string

	GenerateTokenFunc func(claims *authdomain.Claims, ttl time.Duration) (string, error)
	ValidateTokenFunc func(tokenString string) (*authdomain.Claims, error)
}

func (f *FakeJWTProvider) Trace() []string {
	return f.trace
}

func (f *FakeJWTProvider) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeJWTProvider) GenerateToken(claims *authdomain.Claims, ttl time.Duration) (string, error) {
	f.record("GenerateToken")
	if f.GenerateTokenFunc != nil {
		return f.GenerateTokenFunc(claims, ttl)
	}
	return "fake-token", nil
}

func (f *FakeJWTProvider) ValidateToken(tokenString string) (*authdomain.Claims, error) {
	f.record("ValidateToken")
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(tokenString)
	}
	return &authdomain.Claims{UserUUID: uuid.New(), Role: authdomain.RolePlayer}, nil
}

// ------------------------
// Fake Discord Client
// ------------------------

type FakeDiscord struct {
	trace []string

	FetchProfileFunc func(ctx context.Context, code string) (*userservice.DiscordProfile, error)
}

func (f *FakeDiscord) Trace() []string {
	return f.trace
}

func (f *FakeDiscord) AuthCodeURL(state string) string {
	f.trace = append(f.trace, "AuthCodeURL")
	return "https://discord.test/authorize?state=" + state
}

func (f *FakeDiscord) FetchProfile(ctx context.Context, code string) (*userservice.DiscordProfile, error) {
	f.trace = append(f.trace, "FetchProfile")
	if f.FetchProfileFunc != nil {
		return f.FetchProfileFunc(ctx, code)
	}
	return &userservice.DiscordProfile{ID: "42", Username: "kilo"}, nil
}

// ------------------------
// Fake User Registry
// ------------------------

type FakeUsers struct {
	trace []string

	RegisterFromDiscordFunc func(ctx context.Context, profile userservice.DiscordProfile) (*userdb.User, error)
	GetUserFunc             func(ctx context.Context, id uuid.UUID) (*userdb.User, error)
}

func (f *FakeUsers) Trace() []string {
	return f.trace
}

func (f *FakeUsers) RegisterFromDiscord(ctx context.Context, profile userservice.DiscordProfile) (*userdb.User, error) {
	f.trace = append(f.trace, "RegisterFromDiscord")
	if f.RegisterFromDiscordFunc != nil {
		return f.RegisterFromDiscordFunc(ctx, profile)
	}
	return &userdb.User{ID: uuid.New(), DiscordID: profile.ID, Nickname: profile.DisplayName(), Role: authdomain.RolePlayer}, nil
}

func (f *FakeUsers) GetUser(ctx context.Context, id uuid.UUID) (*userdb.User, error) {
	f.trace = append(f.trace, "GetUser")
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, id)
	}
	return nil, userservice.ErrUserNotFound
}
