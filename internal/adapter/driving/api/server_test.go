package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/config"
	"github.com/lhtools/tb-pivot-export-go/internal/application/usecase"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type silentConsole struct{}

func (silentConsole) Print(a ...interface{})                       {}
func (silentConsole) Printf(format string, a ...interface{})       {}
func (silentConsole) Println(a ...interface{})                     {}
func (silentConsole) LogInfo(format string, a ...interface{})      {}
func (silentConsole) LogWarning(format string, a ...interface{})   {}
func (silentConsole) LogError(format string, a ...interface{})     {}
func (silentConsole) LogSuccess(format string, a ...interface{})   {}
func (silentConsole) Status(string) types.StatusHandle             { return silentHandle{} }
func (silentConsole) Progress([]string) types.ProgressHandle       { return silentHandle{} }
func (silentConsole) ProgressWithTotal(int) types.ProgressHandle   { return silentHandle{} }
func (silentConsole) CreateTable() types.TableInterface            { return &silentTable{} }
func (silentConsole) DisplayPeriodBars(string, []types.PeriodValue) {}

type silentHandle struct{}

func (silentHandle) Update(string) {}
func (silentHandle) Increment()    {}
func (silentHandle) Stop()         {}

type silentTable struct{}

func (*silentTable) AddColumn(string, ...interface{}) {}
func (*silentTable) AddRow(...interface{})            {}
func (*silentTable) Render() string                   { return "" }

func newTestServer() *Server {
	uc := usecase.NewExportUseCase(nil, nil, config.NewConfigRepository(), silentConsole{})
	return NewServer(uc, silentConsole{})
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateReportRejectsMalformedBody(t *testing.T) {
	server := newTestServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestCreateReportRejectsIncompletePayload(t *testing.T) {
	server := newTestServer()

	body := `{"timezone":"UTC","entities":[{"type":"DEVICE","id":"d"}],"keys":["k"]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_TIME_RANGE", resp.Error.Code)
}
