package planapi_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"principal-sync/core/sync"
	"principal-sync/feature/planapi"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp() *fiber.App {
	app := fiber.New()
	handler := planapi.NewHandler(planapi.NewService(nil))
	handler.RegisterRoutes(app)
	return app
}

func postJSON(app *fiber.App, path, body string) (int, []byte, error) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}

func TestHandleValidate(t *testing.T) {
	app := setupTestApp()

	t.Run("Valid Principals", func(t *testing.T) {
		body := `[
			{"principalTypeEnum":"LOCAL_GROUP","name":"analysts","displayName":"Analysts","groupNames":[]},
			{"principalTypeEnum":"LOCAL_USER","name":"alice","displayName":"Alice","groupNames":["analysts"]}
		]`
		status, data, err := postJSON(app, "/api/validate", body)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, status)

		var result planapi.ValidationResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.True(t, result.Valid)
		assert.Equal(t, 1, result.Users)
		assert.Equal(t, 1, result.Groups)
	})

	t.Run("Dangling Reference", func(t *testing.T) {
		body := `[{"principalTypeEnum":"LOCAL_USER","name":"alice","displayName":"Alice","groupNames":["ghosts"]}]`
		status, data, err := postJSON(app, "/api/validate", body)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, status)

		var result planapi.ValidationResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Contains(t, result.Issues[0], "ghosts")
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		status, _, err := postJSON(app, "/api/validate", "{not json")
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestHandlePlan(t *testing.T) {
	app := setupTestApp()

	t.Run("Creates For Empty Target", func(t *testing.T) {
		body := `{
			"desired": [
				{"principalTypeEnum":"LOCAL_GROUP","name":"analysts","displayName":"Analysts","groupNames":[]},
				{"principalTypeEnum":"LOCAL_USER","name":"alice","displayName":"Alice","groupNames":["analysts"]}
			],
			"options": {}
		}`
		status, data, err := postJSON(app, "/api/plan", body)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, status)

		var plan sync.Plan
		require.NoError(t, json.Unmarshal(data, &plan))
		assert.Equal(t, 1, plan.Summary.GroupCreates)
		assert.Equal(t, 1, plan.Summary.UserCreates)
		assert.Equal(t, 1, plan.Summary.MembershipSets)
	})

	t.Run("Remove Deleted", func(t *testing.T) {
		body := `{
			"desired": [{"principalTypeEnum":"LOCAL_USER","name":"alice","displayName":"Alice","groupNames":[]}],
			"current": [{"principalTypeEnum":"LOCAL_USER","name":"stale","displayName":"Stale","groupNames":[]}],
			"options": {"removeDeleted": true}
		}`
		status, data, err := postJSON(app, "/api/plan", body)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, status)

		var plan sync.Plan
		require.NoError(t, json.Unmarshal(data, &plan))
		assert.Equal(t, 1, plan.Summary.UserDeletes)
	})

	t.Run("Cycle Is Unprocessable", func(t *testing.T) {
		body := `{
			"desired": [
				{"principalTypeEnum":"LOCAL_GROUP","name":"a","displayName":"a","groupNames":["b"]},
				{"principalTypeEnum":"LOCAL_GROUP","name":"b","displayName":"b","groupNames":["a"]}
			],
			"options": {}
		}`
		status, _, err := postJSON(app, "/api/plan", body)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})

	t.Run("Missing Desired", func(t *testing.T) {
		status, _, err := postJSON(app, "/api/plan", `{"options":{}}`)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}
