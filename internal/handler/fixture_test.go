package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/handler"
	"github.com/sakif/urfit-server/internal/model"
	"github.com/sakif/urfit-server/internal/repository/sqlite"
	"github.com/sakif/urfit-server/internal/service"
)

// testEnv wires real services over an in-memory database, so handler tests
// exercise the full request path — parsing, service rules, SQL — with no
// mocks in between.
type testEnv struct {
	tokens      *auth.TokenService
	authSvc     *service.AuthService
	auth        *handler.AuthHandler
	challenges  *handler.ChallengeHandler
	enrollments *handler.EnrollmentHandler

	challengeSvc *service.ChallengeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-key")
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4)

	authSvc := service.NewAuthService(db, tokens, passwords, logger)
	challengeSvc := service.NewChallengeService(db, db, logger)
	enrollmentSvc := service.NewEnrollmentService(db, db, logger)

	return &testEnv{
		tokens:       tokens,
		authSvc:      authSvc,
		auth:         handler.NewAuthHandler(authSvc, logger),
		challenges:   handler.NewChallengeHandler(challengeSvc, logger),
		enrollments:  handler.NewEnrollmentHandler(enrollmentSvc, logger),
		challengeSvc: challengeSvc,
	}
}

// registerMember creates a member account and returns its claim.
func (e *testEnv) registerMember(t *testing.T, email string) auth.Claim {
	t.Helper()
	user, err := e.authSvc.Register(context.Background(), "Test Member", email, "password123")
	if err != nil {
		t.Fatalf("registering %s: %v", email, err)
	}
	return auth.Claim{UserID: user.ID, Role: user.Role}
}

// seedCoordinator creates the coordinator account and returns its claim.
func (e *testEnv) seedCoordinator(t *testing.T) auth.Claim {
	t.Helper()
	ctx := context.Background()
	if err := e.authSvc.SeedCoordinator(ctx, "Coach", "coach@urfit.test", "coachpass123"); err != nil {
		t.Fatalf("seeding coordinator: %v", err)
	}
	result, err := e.authSvc.Login(ctx, "coach@urfit.test", "coachpass123")
	if err != nil {
		t.Fatalf("logging in coordinator: %v", err)
	}
	return auth.Claim{UserID: result.User.ID, Role: result.User.Role}
}

// createChallenge inserts a challenge through the service layer.
func (e *testEnv) createChallenge(t *testing.T, coordinator auth.Claim, title string) *model.Challenge {
	t.Helper()
	challenge, err := e.challengeSvc.Create(context.Background(), coordinator, service.CreateChallengeInput{
		Title:       title,
		Description: "30 days of squats",
		TotalDays:   30,
	})
	if err != nil {
		t.Fatalf("creating challenge %q: %v", title, err)
	}
	return challenge
}

// authedRequest builds a request carrying the claim, the way RequireAuth
// would have left it for the handler.
func authedRequest(method, target, body string, claim auth.Claim) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.ContextWithClaim(req.Context(), claim))
}
