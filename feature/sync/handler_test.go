package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"
	"legacy-mirror/core/registry"
	"legacy-mirror/core/state"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, withArchive bool) (*fiber.App, *fixture) {
	t.Helper()
	f := newFixture(t, withArchive)
	app := fiber.New()
	NewHandler(f.service).RegisterRoutes(app)
	return app, f
}

func decode(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

func post(t *testing.T, app *fiber.App, path, body string) (int, io.Reader) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest("POST", path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, resp.Body
}

func get(t *testing.T, app *fiber.App, path string) (int, io.Reader) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	return resp.StatusCode, resp.Body
}

func TestHandleSync(t *testing.T) {
	t.Run("All Tables", func(t *testing.T) {
		app, f := setupTestApp(t, true)
		f.client.On("PutObject", mock.Anything, "reports", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, nil)

		code, body := post(t, app, "/sync", "")
		assert.Equal(t, fiber.StatusOK, code)

		var run reconcile.RunResult
		decode(t, body, &run)
		assert.True(t, run.Success)
		assert.Equal(t, 3, run.TotalTables)
		assert.Equal(t, reconcile.ModeIncremental, run.Mode)
		f.client.AssertNumberOfCalls(t, "PutObject", 1)
	})

	t.Run("Dependency Unmet", func(t *testing.T) {
		app, _ := setupTestApp(t, false)

		code, body := post(t, app, "/sync", `{"tables":["projects"],"mode":"full"}`)
		assert.Equal(t, fiber.StatusOK, code)

		var run reconcile.RunResult
		decode(t, body, &run)
		assert.False(t, run.Success)
		assert.Equal(t, reconcile.ModeFull, run.Mode)
		require.Len(t, run.Tables, 1)
		assert.Contains(t, run.Tables[0].ErrorSamples[0], "missing dependency for projects")
	})

	t.Run("Archive Failure Does Not Fail Run", func(t *testing.T) {
		app, f := setupTestApp(t, true)
		f.client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("offline"))

		code, body := post(t, app, "/sync", `{"category":"core"}`)
		assert.Equal(t, fiber.StatusOK, code)

		var run reconcile.RunResult
		decode(t, body, &run)
		assert.True(t, run.Success)
		assert.Equal(t, 1, run.TotalTables)
	})

	t.Run("Bad Requests", func(t *testing.T) {
		app, _ := setupTestApp(t, false)

		code, _ := post(t, app, "/sync", `{"mode":"sometimes"}`)
		assert.Equal(t, fiber.StatusBadRequest, code)

		code, _ = post(t, app, "/sync", `{"category":"nope"}`)
		assert.Equal(t, fiber.StatusBadRequest, code)

		code, _ = post(t, app, "/sync", `{not json`)
		assert.Equal(t, fiber.StatusBadRequest, code)
	})
}

func TestHandleRetry(t *testing.T) {
	app, f := setupTestApp(t, false)
	f.syncer.fail["customers"] = true

	code, body := post(t, app, "/sync", "")
	require.Equal(t, fiber.StatusOK, code)
	var first reconcile.RunResult
	decode(t, body, &first)
	assert.False(t, first.Success)

	delete(f.syncer.fail, "customers")
	code, body = post(t, app, "/sync/retry", "")
	assert.Equal(t, fiber.StatusOK, code)

	var retry reconcile.RunResult
	decode(t, body, &retry)
	assert.True(t, retry.Success)
	require.Len(t, retry.Tables, 1)
	assert.Equal(t, "customers", retry.Tables[0].Table)
}

func TestHandleSyncTable(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		app, _ := setupTestApp(t, false)

		code, body := post(t, app, "/sync/tables/projects?mode=full", "")
		assert.Equal(t, fiber.StatusOK, code)

		var res reconcile.SyncResult
		decode(t, body, &res)
		assert.True(t, res.Success)
		assert.Equal(t, reconcile.ModeFull, res.Mode)
	})

	t.Run("Row Errors", func(t *testing.T) {
		app, f := setupTestApp(t, false)
		f.syncer.fail["companies"] = true

		code, body := post(t, app, "/sync/tables/companies", "")
		assert.Equal(t, fiber.StatusOK, code)

		var res reconcile.SyncResult
		decode(t, body, &res)
		assert.False(t, res.Success)
		assert.Equal(t, 1, res.ErrorCount)
	})

	t.Run("Unknown Table", func(t *testing.T) {
		app, _ := setupTestApp(t, false)
		code, _ := post(t, app, "/sync/tables/ghosts", "")
		assert.Equal(t, fiber.StatusNotFound, code)
	})

	t.Run("Bad Mode", func(t *testing.T) {
		app, _ := setupTestApp(t, false)
		code, _ := post(t, app, "/sync/tables/companies?mode=partial", "")
		assert.Equal(t, fiber.StatusBadRequest, code)
	})

	t.Run("Already Running", func(t *testing.T) {
		app, f := setupTestApp(t, false)
		f.syncer.block = make(chan struct{})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = f.service.SyncTable(context.Background(), "companies", reconcile.ModeIncremental)
		}()
		require.Eventually(t, func() bool {
			status, err := f.service.Status(context.Background())
			return err == nil && status.Totals.Running == 1
		}, time.Second, 5*time.Millisecond)

		code, _ := post(t, app, "/sync/tables/companies", "")
		assert.Equal(t, fiber.StatusConflict, code)

		close(f.syncer.block)
		<-done
	})
}

func TestHandleStatus(t *testing.T) {
	app, f := setupTestApp(t, false)
	now := time.Now()
	_, err := f.state.RecordRun(context.Background(), state.Run{Table: "companies", Success: true, NewWatermark: &now})
	require.NoError(t, err)

	code, body := get(t, app, "/sync/status")
	assert.Equal(t, fiber.StatusOK, code)

	var status orchestrator.GlobalStatus
	decode(t, body, &status)
	assert.Equal(t, 3, status.Totals.Tables)
	assert.Equal(t, 1, status.Totals.Synchronized)
	assert.Equal(t, 2, status.Totals.NeverSynced)
}

func TestHandleTables(t *testing.T) {
	app, _ := setupTestApp(t, false)

	code, body := get(t, app, "/sync/tables")
	assert.Equal(t, fiber.StatusOK, code)

	var levels []registry.Level
	decode(t, body, &levels)
	require.Len(t, levels, 2)
	assert.Len(t, levels[0].Tables, 2)
	assert.Equal(t, "projects", levels[1].Tables[0].Name)
}

func TestHandleReports(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		app, _ := setupTestApp(t, false)
		code, _ := get(t, app, "/sync/reports")
		assert.Equal(t, fiber.StatusServiceUnavailable, code)
	})

	t.Run("Listing", func(t *testing.T) {
		app, f := setupTestApp(t, true)
		f.client.On("ListObjects", mock.Anything, "reports", mock.Anything).
			Return(listing(minio.ObjectInfo{Key: "sync-reports/2024/03/09/run-1.json", LastModified: time.Now()}))

		code, body := get(t, app, "/sync/reports?limit=5")
		assert.Equal(t, fiber.StatusOK, code)

		var reports []Report
		decode(t, body, &reports)
		require.Len(t, reports, 1)
		assert.Equal(t, "run-1", reports[0].RunID)
	})

	t.Run("Bad Limit", func(t *testing.T) {
		app, _ := setupTestApp(t, true)
		code, _ := get(t, app, "/sync/reports?limit=-1")
		assert.Equal(t, fiber.StatusBadRequest, code)
	})
}
