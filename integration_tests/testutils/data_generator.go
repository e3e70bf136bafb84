package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
)

// TestDataGenerator seeds realistic rows for integration tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	db    *bun.DB
}

// NewTestDataGenerator creates a generator. A zero seed uses the clock.
func NewTestDataGenerator(db *bun.DB, seed int64) *TestDataGenerator {
	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return &TestDataGenerator{faker: gofakeit.New(uint64(s)), db: db}
}

// CreateUser stores a member with the given role and returns its claims.
func (g *TestDataGenerator) CreateUser(ctx context.Context, role authdomain.Role) (*authdomain.Claims, error) {
	user, err := userdb.NewRepository(g.db).UpsertFromDiscord(ctx, g.db, &userdb.User{
		DiscordID: g.faker.Numerify("##################"),
		Nickname:  g.faker.Username(),
		Role:      role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &authdomain.Claims{
		UserUUID:  user.ID,
		DiscordID: user.DiscordID,
		Nickname:  user.Nickname,
		Role:      user.Role,
	}, nil
}

// CreateUsers stores n players.
func (g *TestDataGenerator) CreateUsers(ctx context.Context, n int) ([]*authdomain.Claims, error) {
	users := make([]*authdomain.Claims, 0, n)
	for i := 0; i < n; i++ {
		u, err := g.CreateUser(ctx, authdomain.RolePlayer)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// CreateEvent stores a visible event owned and hosted by owner, starting
// within the next month.
func (g *TestDataGenerator) CreateEvent(ctx context.Context, owner uuid.UUID) (*eventdb.Event, error) {
	start := g.faker.DateRange(time.Now().Add(24*time.Hour), time.Now().AddDate(0, 1, 0)).UTC().Truncate(time.Second)
	event := &eventdb.Event{
		ID:            uuid.New(),
		Title:         g.faker.Sentence(g.faker.Number(2, 5)),
		Description:   g.faker.Paragraph(1, 2, 8, " "),
		OriginalTime:  start,
		ScheduledTime: start,
		IsVisible:     true,
		OwnerID:       owner,
		HostID:        owner,
	}
	if err := eventdb.NewRepository(g.db).CreateEvent(ctx, g.db, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// CreateSlots adds n visible, self-assignable slots numbered from 1.
func (g *TestDataGenerator) CreateSlots(ctx context.Context, eventID uuid.UUID, n int) ([]*eventdb.EventSlot, error) {
	repo := eventdb.NewRepository(g.db)
	sides := []string{"blufor", "opfor", "independent"}
	slots := make([]*eventdb.EventSlot, 0, n)
	for i := 1; i <= n; i++ {
		slot := &eventdb.EventSlot{
			EventID:          eventID,
			SlotNumber:       i,
			Title:            g.faker.JobTitle(),
			GroupName:        fmt.Sprintf("Squad %d", (i-1)/4+1),
			Side:             g.faker.RandomString(sides),
			IsSelfAssignable: true,
			IsVisible:        true,
		}
		if err := repo.CreateSlot(ctx, g.db, slot); err != nil {
			return nil, fmt.Errorf("failed to create slot %d: %w", i, err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
