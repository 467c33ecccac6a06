package users

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/bwise1/moment_stack/internal/db"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

var testDB *db.DB

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		return m.Run()
	}

	ctx := context.Background()
	container, err := startPostGIS(ctx)
	if err != nil {
		log.Printf("postgis container unavailable, skipping user store tests: %v", err)
		return m.Run()
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("failed to get connection string: %v", err)
		return 1
	}
	testDB, err = db.New(dsn, db.PoolConfig{MaxConns: 4, MinConns: 1}, zap.NewNop())
	if err != nil {
		log.Printf("failed to connect: %v", err)
		return 1
	}
	defer testDB.Close()

	if err := testDB.Migrate(ctx); err != nil {
		log.Printf("failed to migrate: %v", err)
		return 1
	}
	return m.Run()
}

func startPostGIS(ctx context.Context) (c *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime: %v", r)
		}
	}()
	return postgres.Run(ctx,
		"postgis/postgis:16-3.4-alpine",
		postgres.WithDatabase("moment_stack"),
		postgres.WithUsername("moments"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
}

func requireRepo(t *testing.T) *Repository {
	t.Helper()
	if testDB == nil {
		t.Skip("database not available")
	}
	_, err := testDB.Pool().Exec(context.Background(), `TRUNCATE users CASCADE`)
	require.NoError(t, err)
	return NewRepository(testDB)
}

func newUser(username string) model.User {
	return model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := requireRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("ana"))
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.AvatarURL)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", byID.Username)
	assert.Equal(t, "hash", byID.PasswordHash)

	byEmail, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestGetMissing(t *testing.T) {
	repo := requireRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestCreateDuplicates(t *testing.T) {
	repo := requireRepo(t)
	ctx := context.Background()
	_, err := repo.Create(ctx, newUser("ana"))
	require.NoError(t, err)

	dupEmail := newUser("other")
	dupEmail.Email = "ana@example.com"
	_, err = repo.Create(ctx, dupEmail)
	assert.ErrorIs(t, err, model.ErrEmailTaken)

	dupName := newUser("ana")
	dupName.Email = "fresh@example.com"
	_, err = repo.Create(ctx, dupName)
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func TestUpdate(t *testing.T) {
	repo := requireRepo(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, newUser("ana"))
	require.NoError(t, err)

	avatar := "https://cdn.example.com/ana.png"
	name := "ana_b"
	updated, err := repo.Update(ctx, created.ID, model.UpdateProfileRequest{Username: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "ana_b", updated.Username)
	assert.Equal(t, created.Email, updated.Email)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)

	_, err = repo.Update(ctx, uuid.New(), model.UpdateProfileRequest{Username: &name})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
