package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kennytong915/Japan-Ramen-Database/internal/auth"
	"github.com/kennytong915/Japan-Ramen-Database/internal/contentfilter"
	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/internal/event"
	"github.com/kennytong915/Japan-Ramen-Database/internal/ratelimit"
	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	"github.com/kennytong915/Japan-Ramen-Database/internal/storage/memory"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/health"
	pkgkafka "github.com/kennytong915/Japan-Ramen-Database/pkg/kafka"
)

// =============================================================================
// Mock repositories
// =============================================================================

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) Update(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCommentRepo) ListApprovedByRestaurant(ctx context.Context, restaurantID string, page, perPage int) ([]domain.Comment, int, error) {
	args := m.Called(ctx, restaurantID, page, perPage)
	return args.Get(0).([]domain.Comment), args.Int(1), args.Error(2)
}

func (m *mockCommentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Comment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) ListReported(ctx context.Context) ([]domain.Comment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) LatestByUserAndRestaurant(ctx context.Context, userID, restaurantID string) (*domain.Comment, error) {
	args := m.Called(ctx, userID, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) CountPhotos(ctx context.Context, commentID string) (int, error) {
	args := m.Called(ctx, commentID)
	return args.Int(0), args.Error(1)
}

func (m *mockCommentRepo) AddPhoto(ctx context.Context, commentID, photoURL string) error {
	args := m.Called(ctx, commentID, photoURL)
	return args.Error(0)
}

func (m *mockCommentRepo) PhotosByRestaurant(ctx context.Context, restaurantID string) ([]domain.RestaurantPhoto, error) {
	args := m.Called(ctx, restaurantID)
	return args.Get(0).([]domain.RestaurantPhoto), args.Error(1)
}

func (m *mockCommentRepo) LatestPhotoURL(ctx context.Context, restaurantID string) (string, error) {
	args := m.Called(ctx, restaurantID)
	return args.String(0), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdateLoginState(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockRestaurantRepo struct {
	mock.Mock
}

func (m *mockRestaurantRepo) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

func (m *mockRestaurantRepo) Ranking(ctx context.Context, limit int) ([]domain.RestaurantRanking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.RestaurantRanking), args.Error(1)
}

// =============================================================================
// Test helpers
// =============================================================================

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestEventProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// testDeps bundles the mocks backing a full test router.
type testDeps struct {
	comments    *mockCommentRepo
	users       *mockUserRepo
	restaurants *mockRestaurantRepo
	jwt         *auth.JWTManager
	limiter     *ratelimit.Limiter
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	limiter := ratelimit.New(100, time.Minute, handlerTestLogger())
	t.Cleanup(limiter.Close)
	return &testDeps{
		comments:    new(mockCommentRepo),
		users:       new(mockUserRepo),
		restaurants: new(mockRestaurantRepo),
		jwt:         auth.NewJWTManager("test-secret", time.Hour),
		limiter:     limiter,
	}
}

// newTestRouter builds the full router on top of the mock repositories,
// with real content filter, in-memory storage, and JWT validation.
func newTestRouter(t *testing.T, d *testDeps) http.Handler {
	return newTestRouterWithCooldown(t, d, 0)
}

func newTestRouterWithCooldown(t *testing.T, d *testDeps, cooldown time.Duration) http.Handler {
	t.Helper()
	logger := handlerTestLogger()

	filter := contentfilter.New(logger)

	commentService := service.NewCommentService(
		d.comments, d.users, d.restaurants, filter,
		memory.New("http://localhost:8080"), handlerTestEventProducer(),
		service.CommentConfig{
			Cooldown:            cooldown,
			MaxPhotos:           5,
			AllowedContentTypes: []string{"image/jpeg", "image/png", "image/webp"},
		},
		logger,
	)
	userService := service.NewUserService(d.users, filter, d.jwt, logger)
	restaurantService := service.NewRestaurantService(d.restaurants, nil, logger)

	return NewRouter(
		commentService, userService, restaurantService,
		d.jwt.Validator(), d.limiter, health.NewHandler(),
		RouterConfig{MaxPhotos: 5}, logger,
	)
}

func bearerToken(t *testing.T, d *testDeps, userID, role string) string {
	t.Helper()
	token, err := d.jwt.Generate(userID, "tester", role)
	require.NoError(t, err)
	return "Bearer " + token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func sampleRestaurant() *domain.Restaurant {
	return &domain.Restaurant{
		ID:        "rest-1",
		Name:      "Menya Itto",
		Area:      "Shinjuku",
		CreatedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func sampleUser(id string) *domain.User {
	return &domain.User{
		ID:        id,
		Username:  "tester",
		Email:     "tester@example.com",
		Role:      domain.RoleUser,
		CreatedAt: time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC),
	}
}

func sampleComment() *domain.Comment {
	return &domain.Comment{
		ID:                 "comment-1",
		UserID:             "user-1",
		Username:           "tester",
		RestaurantID:       "rest-1",
		FoodComment:        "rich tonkotsu broth",
		VisitingComment:    "short queue on weekdays",
		EnvironmentComment: "counter seats only",
		FoodScore:          5,
		VisitingScore:      4,
		EnvironmentScore:   4,
		OverallScore:       5,
		Approved:           true,
		Photos:             []string{},
		CreatedAt:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func validCommentBody() CommentRequest {
	return CommentRequest{
		FoodComment:        "rich tonkotsu broth",
		VisitingComment:    "short queue on weekdays",
		EnvironmentComment: "counter seats only",
		FoodScore:          5,
		VisitingScore:      4,
		EnvironmentScore:   4,
		OverallScore:       5,
	}
}
