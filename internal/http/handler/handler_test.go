package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"trainingportal/internal/http/middleware"
	"trainingportal/internal/model"
	"trainingportal/internal/service"
	serviceMocks "trainingportal/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("no database configured", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIndex(t *testing.T) {
	app := fiber.New()
	app.Get("/", Index())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Employee Training Material Portal")
}

func TestListMaterials(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Get("/api/materials", ListMaterials(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(&service.MaterialListResult{
			Items: []string{"a.pdf", "b.pdf"}, Total: 2,
		}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.MaterialListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, []string{"a.pdf", "b.pdf"}, result.Items)
		assert.Equal(t, 2, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty store", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(&service.MaterialListResult{Items: []string{}}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"data":[],"total":0}`, string(body))
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("permission denied")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "permission denied")
	})
}

func TestDownloadMaterial(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Get("/api/materials/:name/download", DownloadMaterial(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Open", mock.Anything, "intro.pdf").Return(
			io.NopCloser(strings.NewReader("PDFDATA")),
			&model.Material{Name: "intro.pdf", Size: 7, ContentType: "application/pdf"},
			nil,
		).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials/intro.pdf/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, fiber.MIMEOctetStream, resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, `attachment; filename="intro.pdf"`, resp.Header.Get(fiber.HeaderContentDisposition))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "PDFDATA", string(body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("escaped name", func(t *testing.T) {
		mockSvc.On("Open", mock.Anything, "Safety Guide.pdf").Return(
			io.NopCloser(strings.NewReader("x")),
			&model.Material{Name: "Safety Guide.pdf", Size: 1},
			nil,
		).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials/Safety%20Guide.pdf/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Open", mock.Anything, "gone.pdf").Return(nil, nil, service.ErrMaterialNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials/gone.pdf/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "MATERIAL_NOT_FOUND", body.Error.Code)
		assert.Equal(t, "File not found on the server.", body.Error.Message)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Open", mock.Anything, "x.pdf").Return(nil, nil, errors.New("io")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials/x.pdf/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestRecordAccess(t *testing.T) {
	newApp := func() (*fiber.App, *serviceMocks.MockAccessService, *serviceMocks.MockMaterialService) {
		accessSvc := new(serviceMocks.MockAccessService)
		materialSvc := new(serviceMocks.MockMaterialService)
		app := fiber.New()
		app.Use(middleware.RequestID())
		app.Post("/api/access", RecordAccess(accessSvc, materialSvc))
		return app, accessSvc, materialSvc
	}

	jsonReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/access", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return req
	}

	t.Run("success", func(t *testing.T) {
		app, accessSvc, materialSvc := newApp()
		accessSvc.On("Record", mock.Anything, "Alice", "alice@corp.com", "intro.pdf").
			Return(&service.AccessResult{Success: true, Message: "Access recorded for Alice."}, nil).Once()
		materialSvc.On("Exists", mock.Anything, "intro.pdf").Return(true, nil).Once()

		resp, err := app.Test(jsonReq(`{"name":"Alice","email":"alice@corp.com","material":"intro.pdf"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body recordAccessResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, "Access recorded for Alice.", body.Message)
		assert.Equal(t, "intro.pdf", body.Material)
		assert.True(t, body.MaterialAvailable)
		assert.Equal(t, "/api/materials/intro.pdf/download", body.DownloadURL)
		accessSvc.AssertExpectations(t)
		materialSvc.AssertExpectations(t)
	})

	t.Run("form body", func(t *testing.T) {
		app, accessSvc, materialSvc := newApp()
		accessSvc.On("Record", mock.Anything, "Bob", "bob@corp.com", "Safety Guide.pdf").
			Return(&service.AccessResult{Success: true, Message: "Access recorded for Bob."}, nil).Once()
		materialSvc.On("Exists", mock.Anything, "Safety Guide.pdf").Return(true, nil).Once()

		form := url.Values{"name": {"Bob"}, "email": {"bob@corp.com"}, "material": {"Safety Guide.pdf"}}
		req := httptest.NewRequest(http.MethodPost, "/api/access", strings.NewReader(form.Encode()))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body recordAccessResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "/api/materials/Safety%20Guide.pdf/download", body.DownloadURL)
	})

	t.Run("material name kept verbatim", func(t *testing.T) {
		app, accessSvc, materialSvc := newApp()
		accessSvc.On("Record", mock.Anything, "Alice", "a@x.com", " padded.pdf ").
			Return(&service.AccessResult{Success: true, Message: "Access recorded for Alice."}, nil).Once()
		materialSvc.On("Exists", mock.Anything, " padded.pdf ").Return(true, nil).Once()

		resp, err := app.Test(jsonReq(`{"name":"Alice","email":"a@x.com","material":" padded.pdf "}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body recordAccessResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, " padded.pdf ", body.Material)
		assert.Equal(t, "/api/materials/%20padded.pdf%20/download", body.DownloadURL)
		accessSvc.AssertExpectations(t)
		materialSvc.AssertExpectations(t)
	})

	t.Run("material vanished after listing", func(t *testing.T) {
		app, accessSvc, materialSvc := newApp()
		accessSvc.On("Record", mock.Anything, "Alice", "a@x.com", "gone.pdf").
			Return(&service.AccessResult{Success: true, Message: "Access recorded for Alice."}, nil).Once()
		materialSvc.On("Exists", mock.Anything, "gone.pdf").Return(false, nil).Once()

		resp, err := app.Test(jsonReq(`{"name":"Alice","email":"a@x.com","material":"gone.pdf"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body recordAccessResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.False(t, body.MaterialAvailable)
		assert.Empty(t, body.DownloadURL)
	})

	t.Run("validation failure", func(t *testing.T) {
		app, accessSvc, materialSvc := newApp()
		accessSvc.On("Record", mock.Anything, "", "a@x.com", "intro.pdf").
			Return(&service.AccessResult{Success: false, Message: service.MsgIdentityRequired}, nil).Once()

		req := jsonReq(`{"name":"","email":"a@x.com","material":"intro.pdf"}`)
		req.Header.Set(middleware.RequestIDHeader, "rid-1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "Please enter both Name and Email.", body.Error.Message)
		assert.Equal(t, "rid-1", body.RequestID)
		materialSvc.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	})

	t.Run("material required", func(t *testing.T) {
		app, accessSvc, _ := newApp()

		resp, err := app.Test(jsonReq(`{"name":"Alice","email":"a@x.com","material":"  "}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "MATERIAL_REQUIRED", decodeError(t, resp).Error.Code)
		accessSvc.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		app, _, _ := newApp()

		resp, err := app.Test(jsonReq(`{"name":`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		app, accessSvc, _ := newApp()
		accessSvc.On("Record", mock.Anything, "Alice", "a@x.com", "intro.pdf").
			Return(nil, errors.New("decode access log: malformed")).Once()

		resp, err := app.Test(jsonReq(`{"name":"Alice","email":"a@x.com","material":"intro.pdf"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "malformed")
	})
}

func TestListAccessLog(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccessService)
	app := fiber.New()
	app.Get("/api/admin/access-log", ListAccessLog(mockSvc))

	t.Run("available", func(t *testing.T) {
		mockSvc.On("Log", mock.Anything).Return(&service.AccessLogResult{
			Items: []model.AccessRecord{
				{Name: "Alice", Email: "a@x.com", Material: "m1"},
				{Name: "Bob", Email: "b@x.com", Material: "m2"},
			},
			Total:     2,
			Available: true,
		}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/access-log", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{
			"data": [
				{"name":"Alice","email":"a@x.com","material":"m1"},
				{"name":"Bob","email":"b@x.com","material":"m2"}
			],
			"total": 2,
			"available": true
		}`, string(body))
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Log", mock.Anything).Return(nil, errors.New("boom")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/access-log", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestDownloadAccessLog(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccessService)
	app := fiber.New()
	app.Get("/api/admin/access-log/download", DownloadAccessLog(mockSvc, "access_log.xlsx"))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ExportLog", mock.Anything, mock.Anything).Return(func(w io.Writer) error {
			_, err := w.Write([]byte("PK\x03\x04workbook"))
			return err
		}).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/access-log/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, SpreadsheetContentType, resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, `attachment; filename="access_log.xlsx"`, resp.Header.Get(fiber.HeaderContentDisposition))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "PK\x03\x04workbook", string(body))
	})

	t.Run("no log yet", func(t *testing.T) {
		mockSvc.On("ExportLog", mock.Anything, mock.Anything).Return(service.ErrLogNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/access-log/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "LOG_NOT_FOUND", body.Error.Code)
		assert.Equal(t, "No access log available yet.", body.Error.Message)
	})

	t.Run("export failure", func(t *testing.T) {
		mockSvc.On("ExportLog", mock.Anything, mock.Anything).Return(errors.New("eio")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/access-log/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("secret internals")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return fiber.ErrBadRequest
	})

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/bad", http.StatusBadRequest, "BAD_REQUEST"},
		{"/nope", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.NotEmpty(t, body.RequestID)
			assert.NotContains(t, body.Error.Message, "secret")
		})
	}
}
