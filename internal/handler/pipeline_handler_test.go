package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/recruiting-crm-api/internal/dto"
	"github.com/noah-isme/recruiting-crm-api/internal/middleware"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/internal/service"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
	"github.com/noah-isme/recruiting-crm-api/pkg/export"
)

type pipelineServiceMock struct {
	listResp   *dto.PipelineListResponse
	listErr    error
	entry      *models.PipelineEntryDetail
	entryErr   error
	deleteErr  error
	bulkResp   *dto.BulkResult
	bulkErr    error
	lastTenant string
	lastID     string
	lastQuery  dto.PipelineQuery
	lastCreate dto.CreatePipelineEntryRequest
	lastUpdate dto.UpdatePipelineEntryRequest
	lastMove   dto.MovePipelineEntryRequest
	lastBulk   dto.BulkMoveRequest
	calls      []string
}

func (m *pipelineServiceMock) List(ctx context.Context, tenantID string, query dto.PipelineQuery) (*dto.PipelineListResponse, error) {
	m.calls = append(m.calls, "list")
	m.lastTenant, m.lastQuery = tenantID, query
	return m.listResp, m.listErr
}

func (m *pipelineServiceMock) Get(ctx context.Context, tenantID, id string) (*models.PipelineEntryDetail, error) {
	m.calls = append(m.calls, "get")
	m.lastTenant, m.lastID = tenantID, id
	return m.entry, m.entryErr
}

func (m *pipelineServiceMock) Create(ctx context.Context, tenantID string, req dto.CreatePipelineEntryRequest) (*models.PipelineEntryDetail, error) {
	m.calls = append(m.calls, "create")
	m.lastTenant, m.lastCreate = tenantID, req
	return m.entry, m.entryErr
}

func (m *pipelineServiceMock) Update(ctx context.Context, tenantID, id string, req dto.UpdatePipelineEntryRequest) (*models.PipelineEntryDetail, error) {
	m.calls = append(m.calls, "update")
	m.lastTenant, m.lastID, m.lastUpdate = tenantID, id, req
	return m.entry, m.entryErr
}

func (m *pipelineServiceMock) Move(ctx context.Context, tenantID, id string, req dto.MovePipelineEntryRequest) (*models.PipelineEntryDetail, error) {
	m.calls = append(m.calls, "move")
	m.lastTenant, m.lastID, m.lastMove = tenantID, id, req
	return m.entry, m.entryErr
}

func (m *pipelineServiceMock) Delete(ctx context.Context, tenantID, id string) error {
	m.calls = append(m.calls, "delete")
	m.lastTenant, m.lastID = tenantID, id
	return m.deleteErr
}

func (m *pipelineServiceMock) BulkMove(ctx context.Context, tenantID string, req dto.BulkMoveRequest) (*dto.BulkResult, error) {
	m.calls = append(m.calls, "bulk-move")
	m.lastTenant, m.lastBulk = tenantID, req
	return m.bulkResp, m.bulkErr
}

func (m *pipelineServiceMock) BulkUpdate(ctx context.Context, tenantID string, req dto.BulkUpdateRequest) (*dto.BulkResult, error) {
	m.calls = append(m.calls, "bulk-update")
	m.lastTenant = tenantID
	return m.bulkResp, m.bulkErr
}

type pipelineExporterMock struct {
	file       *service.ExportFile
	err        error
	lastFormat export.Format
	lastQuery  dto.PipelineQuery
}

func (m *pipelineExporterMock) ExportPipeline(ctx context.Context, tenantID string, query dto.PipelineQuery, format export.Format) (*service.ExportFile, error) {
	m.lastFormat, m.lastQuery = format, query
	return m.file, m.err
}

func newPipelineContext(method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func recruiterClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", TenantID: "tenant-a", Role: models.RoleRecruiter}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPipelineHandlerListPassesFiltersAndTenant(t *testing.T) {
	svc := &pipelineServiceMock{listResp: &dto.PipelineListResponse{
		Entries: []models.PipelineEntryDetail{{PipelineEntry: models.PipelineEntry{ID: "entry-1"}}},
		Total:   1,
		Limit:   50,
	}}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodGet, "/pipeline?positionId=pos-1&status=active&search=ana&limit=10&offset=5", "", recruiterClaims())
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant-a", svc.lastTenant)
	assert.Equal(t, dto.PipelineQuery{PositionID: "pos-1", Status: "active", Search: "ana", Limit: "10", Offset: "5"}, svc.lastQuery)

	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["total"])
	assert.Len(t, data["entries"], 1)
	assert.NotNil(t, body["pagination"])
}

func TestPipelineHandlerRequiresTenant(t *testing.T) {
	svc := &pipelineServiceMock{}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodGet, "/pipeline", "", nil)
	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newPipelineContext(http.MethodGet, "/pipeline/entry-1", "", &models.JWTClaims{UserID: "user-1"})
	h.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.calls)
}

func TestPipelineHandlerGetNotFound(t *testing.T) {
	svc := &pipelineServiceMock{entryErr: appErrors.Clone(appErrors.ErrNotFound, "pipeline entry not found")}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodGet, "/pipeline/missing", "", recruiterClaims())
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing", svc.lastID)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]interface{})["code"])
}

func TestPipelineHandlerCreate(t *testing.T) {
	svc := &pipelineServiceMock{entry: &models.PipelineEntryDetail{PipelineEntry: models.PipelineEntry{ID: "entry-1"}}}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodPost, "/pipeline", `{"candidateId":"cand-1","positionId":"pos-1","rating":4}`, recruiterClaims())
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "cand-1", svc.lastCreate.CandidateID)
	require.NotNil(t, svc.lastCreate.Rating)
	assert.Equal(t, 4, *svc.lastCreate.Rating)
}

func TestPipelineHandlerCreateInvalidBody(t *testing.T) {
	svc := &pipelineServiceMock{}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodPost, "/pipeline", `{"candidateId":`, recruiterClaims())
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.calls)
}

func TestPipelineHandlerUpdateAndMove(t *testing.T) {
	svc := &pipelineServiceMock{entry: &models.PipelineEntryDetail{PipelineEntry: models.PipelineEntry{ID: "entry-1"}}}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodPut, "/pipeline/entry-1", `{"status":"hired","offerDetails":{"salary":100}}`, recruiterClaims())
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastUpdate.Status)
	assert.Equal(t, "hired", *svc.lastUpdate.Status)
	assert.EqualValues(t, 100, svc.lastUpdate.OfferDetails["salary"])

	c, w = newPipelineContext(http.MethodPut, "/pipeline/entry-1/move", `{"stageId":"stage-2"}`, recruiterClaims())
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}
	h.Move(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stage-2", svc.lastMove.StageID)
	assert.Equal(t, []string{"update", "move"}, svc.calls)
}

func TestPipelineHandlerDelete(t *testing.T) {
	svc := &pipelineServiceMock{}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodDelete, "/pipeline/entry-1", "", recruiterClaims())
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["deleted"])
	assert.Equal(t, "entry-1", data["id"])
}

func TestPipelineHandlerBulkMove(t *testing.T) {
	svc := &pipelineServiceMock{bulkResp: &dto.BulkResult{
		ProcessedCount: 1,
		Results: []dto.BulkItemResult{
			{ID: "entry-1", Outcome: dto.BulkOutcomeProcessed},
			{ID: "foreign", Outcome: dto.BulkOutcomeSkipped},
		},
	}}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodPut, "/pipeline/bulk-move", `{"ids":["entry-1","foreign"],"stageId":"stage-2"}`, recruiterClaims())
	h.BulkMove(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"entry-1", "foreign"}, svc.lastBulk.IDs)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["processedCount"])
	assert.Len(t, data["results"], 2)
}

func TestPipelineHandlerBulkUpdateError(t *testing.T) {
	svc := &pipelineServiceMock{bulkErr: appErrors.Clone(appErrors.ErrInvalidArgument, "patch must change at least one field")}
	h := NewPipelineHandler(svc, nil)

	c, w := newPipelineContext(http.MethodPut, "/pipeline/bulk-update", `{"ids":["entry-1"],"patch":{}}`, recruiterClaims())
	h.BulkUpdate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"bulk-update"}, svc.calls)
}

func TestPipelineHandlerExport(t *testing.T) {
	exporter := &pipelineExporterMock{file: &service.ExportFile{
		Filename:    "pipeline-20240601-120000.pdf",
		ContentType: "application/pdf",
		Body:        []byte("%PDF"),
	}}
	h := NewPipelineHandler(&pipelineServiceMock{}, exporter)

	c, w := newPipelineContext(http.MethodGet, "/pipeline/export?format=pdf&status=hired&limit=5", "", recruiterClaims())
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatPDF, exporter.lastFormat)
	assert.Equal(t, "hired", exporter.lastQuery.Status)
	assert.Empty(t, exporter.lastQuery.Limit)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pipeline-20240601-120000.pdf")
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestPipelineHandlerExportRejectsUnknownFormat(t *testing.T) {
	exporter := &pipelineExporterMock{}
	h := NewPipelineHandler(&pipelineServiceMock{}, exporter)

	c, w := newPipelineContext(http.MethodGet, "/pipeline/export?format=xlsx", "", recruiterClaims())
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, exporter.lastFormat)
}

func TestPipelineHandlerExportDisabled(t *testing.T) {
	h := NewPipelineHandler(&pipelineServiceMock{}, nil)

	c, w := newPipelineContext(http.MethodGet, "/pipeline/export", "", recruiterClaims())
	h.Export(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
