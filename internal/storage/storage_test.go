package storage_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ashita-ai/tairitsu/internal/auth"
	"github.com/ashita-ai/tairitsu/internal/model"
	"github.com/ashita-ai/tairitsu/internal/storage"
)

var testDB *storage.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "tairitsu",
			"POSTGRES_PASSWORD": "tairitsu",
			"POSTGRES_DB":       "tairitsu",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://tairitsu:tairitsu@%s:%s/tairitsu?sslmode=disable", host, port.Port())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	testDB, err = storage.New(ctx, dsn, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		os.Exit(1)
	}

	if err := testDB.RunMigrations(ctx, os.DirFS("../../migrations")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	// Migrations are tracked in schema_migrations, so a second run is a no-op.
	if err := testDB.RunMigrations(ctx, os.DirFS("../../migrations")); err != nil {
		fmt.Fprintf(os.Stderr, "second migration run failed: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func newUser(t *testing.T, role model.UserRole) model.User {
	t.Helper()
	hash, err := auth.HashAPIKey("test-key-" + uuid.NewString())
	require.NoError(t, err)
	u, err := testDB.CreateUser(context.Background(), model.User{
		Email:      uuid.NewString() + "@example.com",
		Name:       "Test User",
		Role:       role,
		APIKeyHash: hash,
	})
	require.NoError(t, err)
	return u
}

func ptr(s string) *string { return &s }

func TestCreateAndGetMatter(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	m, err := testDB.CreateMatter(ctx, owner.ID, model.CreateMatterRequest{
		Title:        "Acme v. Widget",
		ClientName:   ptr("Acme Corporation"),
		AdverseParty: ptr("Widget Industries"),
		Description:  ptr("Patent infringement dispute."),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, model.MatterActive, m.Status)
	assert.False(t, m.CreatedAt.IsZero())

	got, err := testDB.GetMatter(ctx, m.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme v. Widget", got.Title)
	require.NotNil(t, got.ClientName)
	assert.Equal(t, "Acme Corporation", *got.ClientName)
}

func TestGetMatter_WrongOwner(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)
	other := newUser(t, model.RoleMember)

	m, err := testDB.CreateMatter(ctx, owner.ID, model.CreateMatterRequest{Title: "Private Matter"})
	require.NoError(t, err)

	_, err = testDB.GetMatter(ctx, m.ID, other.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListMatters_ExcludesSelf(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	m1, err := testDB.CreateMatter(ctx, owner.ID, model.CreateMatterRequest{Title: "First"})
	require.NoError(t, err)
	m2, err := testDB.CreateMatter(ctx, owner.ID, model.CreateMatterRequest{Title: "Second"})
	require.NoError(t, err)

	all, err := testDB.ListMatters(ctx, owner.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Excluding the matter under review leaves the rest of the book.
	rest, err := testDB.ListMatters(ctx, owner.ID, &m1.ID)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, m2.ID, rest[0].ID)
}

func TestListMattersPage_StatusFilter(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	m1, err := testDB.CreateMatter(ctx, owner.ID, model.CreateMatterRequest{Title: "Open"})
	require.NoError(t, err)
	m2, err := testDB.CreateMatter(ctx, owner.ID, model.CreateMatterRequest{Title: "Done"})
	require.NoError(t, err)
	require.NoError(t, testDB.UpdateMatterStatus(ctx, m2.ID, owner.ID, model.MatterClosed))

	active := model.MatterActive
	got, err := testDB.ListMattersPage(ctx, owner.ID, &active, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m1.ID, got[0].ID)

	count, err := testDB.CountMatters(ctx, owner.ID, &active)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateMatterStatus_NotFound(t *testing.T) {
	owner := newUser(t, model.RoleMember)
	err := testDB.UpdateMatterStatus(context.Background(), uuid.New(), owner.ID, model.MatterClosed)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testCheckResult() model.ConflictCheckResult {
	return model.ConflictCheckResult{
		RiskLevel:      model.RiskHigh,
		TotalMatches:   1,
		HighRiskCount:  1,
		Recommendation: model.RecommendReview,
		Summary:        "Found 1 potential conflict(s): 1 high-risk, 0 medium-risk, 0 low-risk. Careful review recommended before accepting this matter.",
		Conflicts: []model.ConflictMatch{
			{
				ID:              "client:00000000-0000-0000-0000-000000000001:acme",
				Type:            model.MatchClient,
				MatterTitle:     "Existing Acme Matter",
				MatchedName:     "Acme Corporation",
				QueryName:       "Acme Corp",
				SimilarityScore: 1.0,
				RiskLevel:       model.RiskHigh,
				MatchedAt:       time.Now().UTC(),
			},
		},
	}
}

func TestSaveAndGetCheck(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	params := model.ConflictCheckParams{
		ClientName: ptr("Acme Corp"),
		OwnerID:    owner.ID,
	}
	id, err := testDB.SaveCheck(ctx, testCheckResult(), params)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	check, err := testDB.GetCheck(ctx, id, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, check.Status)
	assert.Equal(t, model.RiskHigh, check.Result.RiskLevel)
	require.NotNil(t, check.Params.ClientName)
	assert.Equal(t, "Acme Corp", *check.Params.ClientName)
	require.Len(t, check.Result.Conflicts, 1)
	assert.Equal(t, "Acme Corporation", check.Result.Conflicts[0].MatchedName)
}

func TestResolveCheck(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	id, err := testDB.SaveCheck(ctx, testCheckResult(), model.ConflictCheckParams{OwnerID: owner.ID, ClientName: ptr("X")})
	require.NoError(t, err)

	notes := "waived after client consent"
	require.NoError(t, testDB.ResolveCheck(ctx, id, owner.ID, model.StatusWaived, owner.ID, &notes))

	check, err := testDB.GetCheck(ctx, id, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaived, check.Status)
	require.NotNil(t, check.ResolvedBy)
	assert.Equal(t, owner.ID, *check.ResolvedBy)
	require.NotNil(t, check.ResolutionNotes)
	assert.Equal(t, notes, *check.ResolutionNotes)
	assert.NotNil(t, check.ResolvedAt)

	// Resolving twice fails: the check is no longer pending.
	err = testDB.ResolveCheck(ctx, id, owner.ID, model.StatusCleared, owner.ID, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidTransition)
}

func TestResolveCheck_Validation(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	// Pending is not a terminal status.
	err := testDB.ResolveCheck(ctx, uuid.New(), owner.ID, model.StatusPending, owner.ID, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidTransition)

	// Unknown check.
	err = testDB.ResolveCheck(ctx, uuid.New(), owner.ID, model.StatusWaived, owner.ID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListChecks_StatusFilter(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	id1, err := testDB.SaveCheck(ctx, testCheckResult(), model.ConflictCheckParams{OwnerID: owner.ID, ClientName: ptr("A")})
	require.NoError(t, err)
	_, err = testDB.SaveCheck(ctx, testCheckResult(), model.ConflictCheckParams{OwnerID: owner.ID, ClientName: ptr("B")})
	require.NoError(t, err)
	require.NoError(t, testDB.ResolveCheck(ctx, id1, owner.ID, model.StatusDeclined, owner.ID, nil))

	pending := model.StatusPending
	got, err := testDB.ListChecks(ctx, owner.ID, &pending, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	total, err := testDB.CountChecks(ctx, owner.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestListRecentChecks(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	_, err := testDB.SaveCheck(ctx, testCheckResult(), model.ConflictCheckParams{OwnerID: owner.ID, ClientName: ptr("Recent")})
	require.NoError(t, err)

	checks, err := testDB.ListRecentChecks(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, checks)
	assert.LessOrEqual(t, len(checks), 5)
}

func TestAuditEvents(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	require.NoError(t, testDB.RecordAuditEvent(ctx, owner.ID, "conflict_check", map[string]any{
		"total_conflicts": 2,
		"risk_level":      "high",
	}))
	require.NoError(t, testDB.RecordAuditEvent(ctx, owner.ID, "token_issued", nil))

	events, err := testDB.ListAuditEvents(ctx, owner.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byKind := make(map[string]storage.AuditEvent, 2)
	for _, e := range events {
		byKind[e.EventKind] = e
	}
	require.Contains(t, byKind, "conflict_check")
	require.Contains(t, byKind, "token_issued")
	assert.EqualValues(t, 2, byKind["conflict_check"].Metadata["total_conflicts"])
	assert.NotNil(t, byKind["token_issued"].Metadata, "nil metadata should be stored as an empty object")
}

func TestPurgeAuditEvents(t *testing.T) {
	ctx := context.Background()
	owner := newUser(t, model.RoleMember)

	require.NoError(t, testDB.RecordAuditEvent(ctx, owner.ID, "conflict_check", nil))

	// Cutoff in the past purges nothing.
	purged, err := testDB.PurgeAuditEvents(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, purged)

	// Cutoff in the future purges the event just written.
	purged, err = testDB.PurgeAuditEvents(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	u := newUser(t, model.RoleMember)

	_, err := testDB.CreateUser(ctx, model.User{
		Email:      u.Email,
		Name:       "Dup",
		Role:       model.RoleMember,
		APIKeyHash: u.APIKeyHash,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestEnsureAdmin_RotatesKey(t *testing.T) {
	ctx := context.Background()

	hash1, err := auth.HashAPIKey("first-key")
	require.NoError(t, err)
	admin1, err := testDB.EnsureAdmin(ctx, "rotate@tairitsu.local", "Admin", hash1)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin1.Role)

	hash2, err := auth.HashAPIKey("second-key")
	require.NoError(t, err)
	admin2, err := testDB.EnsureAdmin(ctx, "rotate@tairitsu.local", "Admin", hash2)
	require.NoError(t, err)

	// Same user, new key hash.
	assert.Equal(t, admin1.ID, admin2.ID)

	stored, err := testDB.GetUserByEmail(ctx, "rotate@tairitsu.local")
	require.NoError(t, err)
	ok, err := auth.VerifyAPIKey("second-key", stored.APIKeyHash)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = auth.VerifyAPIKey("first-key", stored.APIKeyHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()
	u := newUser(t, model.RoleReader)

	got, err := testDB.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, model.RoleReader, got.Role)

	_, err = testDB.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
