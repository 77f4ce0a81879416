package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/urfit-server/internal/model"
)

func TestChallengeHandler_HandleCreate(t *testing.T) {
	t.Run("coordinator creates a challenge", func(t *testing.T) {
		env := newTestEnv(t)
		coordinator := env.seedCoordinator(t)

		reqBody := `{"title":"Couch to 5K","description":"Run!","totalDays":60,"pdfs":["https://cdn.urfit.test/plan.pdf"]}`
		req := authedRequest(http.MethodPost, "/api/challenges", reqBody, coordinator)
		rr := httptest.NewRecorder()

		env.challenges.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var res struct {
			Message   string          `json:"message"`
			Challenge model.Challenge `json:"challenge"`
		}
		err := json.NewDecoder(rr.Body).Decode(&res)
		assert.NoError(t, err)
		assert.Equal(t, "Challenge created successfully", res.Message)
		assert.NotEmpty(t, res.Challenge.ID)
		assert.Equal(t, "Couch to 5K", res.Challenge.Title)
		assert.Equal(t, []string{"https://cdn.urfit.test/plan.pdf"}, res.Challenge.PDFs)
		assert.Equal(t, 0, res.Challenge.ParticipantCount)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		member := env.registerMember(t, "alice@example.com")

		reqBody := `{"title":"Couch to 5K","description":"Run!","totalDays":60}`
		req := authedRequest(http.MethodPost, "/api/challenges", reqBody, member)
		rr := httptest.NewRecorder()

		env.challenges.HandleCreate(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "forbidden")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		env := newTestEnv(t)
		coordinator := env.seedCoordinator(t)

		req := authedRequest(http.MethodPost, "/api/challenges", `{"title":`, coordinator)
		rr := httptest.NewRecorder()

		env.challenges.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		env := newTestEnv(t)
		coordinator := env.seedCoordinator(t)

		reqBody := `{"title":"","description":"Run!","totalDays":60}`
		req := authedRequest(http.MethodPost, "/api/challenges", reqBody, coordinator)
		rr := httptest.NewRecorder()

		env.challenges.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "validation_error")
	})
}

func TestChallengeHandler_HandleGetByID(t *testing.T) {
	t.Run("existing challenge", func(t *testing.T) {
		env := newTestEnv(t)
		coordinator := env.seedCoordinator(t)
		created := env.createChallenge(t, coordinator, "Couch to 5K")

		req := authedRequest(http.MethodGet, "/api/challenges/"+created.ID, "", coordinator)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		env.challenges.HandleGetByID(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var challenge model.Challenge
		err := json.NewDecoder(rr.Body).Decode(&challenge)
		assert.NoError(t, err)
		assert.Equal(t, created.ID, challenge.ID)
		assert.Equal(t, "Couch to 5K", challenge.Title)
	})

	t.Run("missing challenge is not found", func(t *testing.T) {
		env := newTestEnv(t)
		member := env.registerMember(t, "alice@example.com")

		req := authedRequest(http.MethodGet, "/api/challenges/nope", "", member)
		req.SetPathValue("id", "nope")
		rr := httptest.NewRecorder()

		env.challenges.HandleGetByID(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "not_found")
	})
}

func TestChallengeHandler_HandleList(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		env := newTestEnv(t)
		member := env.registerMember(t, "alice@example.com")

		req := authedRequest(http.MethodGet, "/api/challenges", "", member)
		rr := httptest.NewRecorder()

		env.challenges.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("lists created challenges", func(t *testing.T) {
		env := newTestEnv(t)
		coordinator := env.seedCoordinator(t)
		env.createChallenge(t, coordinator, "Couch to 5K")
		env.createChallenge(t, coordinator, "Plank Month")

		req := authedRequest(http.MethodGet, "/api/challenges", "", coordinator)
		rr := httptest.NewRecorder()

		env.challenges.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var challenges []model.Challenge
		err := json.NewDecoder(rr.Body).Decode(&challenges)
		assert.NoError(t, err)
		assert.Len(t, challenges, 2)
	})
}

func TestChallengeHandler_HandleListJoined(t *testing.T) {
	t.Run("new user has joined nothing", func(t *testing.T) {
		env := newTestEnv(t)
		member := env.registerMember(t, "alice@example.com")

		req := authedRequest(http.MethodGet, "/api/me/challenges", "", member)
		rr := httptest.NewRecorder()

		env.challenges.HandleListJoined(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("only joined challenges are returned", func(t *testing.T) {
		env := newTestEnv(t)
		coordinator := env.seedCoordinator(t)
		member := env.registerMember(t, "alice@example.com")
		joined := env.createChallenge(t, coordinator, "Couch to 5K")
		env.createChallenge(t, coordinator, "Plank Month")

		joinReq := authedRequest(http.MethodPost, "/api/challenges/"+joined.ID+"/join", "", member)
		joinReq.SetPathValue("id", joined.ID)
		env.enrollments.HandleJoin(httptest.NewRecorder(), joinReq)

		req := authedRequest(http.MethodGet, "/api/me/challenges", "", member)
		rr := httptest.NewRecorder()

		env.challenges.HandleListJoined(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var challenges []model.Challenge
		err := json.NewDecoder(rr.Body).Decode(&challenges)
		assert.NoError(t, err)
		assert.Len(t, challenges, 1)
		assert.Equal(t, joined.ID, challenges[0].ID)
	})
}
