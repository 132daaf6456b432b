package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/decision-noise/internal/config"
	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
	"github.com/kirillkom/decision-noise/internal/core/usecase"
	"github.com/kirillkom/decision-noise/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/decision-noise/internal/observability/metrics"
)

const (
	// multipart framing on top of the largest accepted file
	maxUploadRequestBytes = 2 * usecase.MaxUploadBytes
	multipartMemoryBytes  = 8 << 20
	backpressureWait      = 250 * time.Millisecond
)

const serviceName = "api"

type Router struct {
	config    config.Config
	ingestor  ports.NoiseDataIngestor
	dashboard ports.DashboardReader
	blobs     ports.NoiseDataStorage
	metrics   *metrics.HTTPServerMetrics
	audit     ports.AuditSink
	logger    *slog.Logger
	validate  *validator.Validate
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

// WithAudit receives uploads rejected before they reach the ingestor.
func WithAudit(sink ports.AuditSink) RouterOption {
	return func(rt *Router) { rt.audit = sink }
}

func WithLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRouter(
	cfg config.Config,
	ingestor ports.NoiseDataIngestor,
	dashboard ports.DashboardReader,
	blobs ports.NoiseDataStorage,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		config:    cfg,
		ingestor:  ingestor,
		dashboard: dashboard,
		blobs:     blobs,
		logger:    slog.Default(),
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openapi)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	upload := backpressureMiddleware(http.HandlerFunc(rt.uploadNoiseData), rt.config.UploadMaxInFlight, backpressureWait)
	upload = rateLimitMiddleware(upload, rt.config.APIRateLimitRPS, rt.config.APIRateLimitBurst)
	mux.Handle("POST /v1/noise-data", upload)

	mux.HandleFunc("GET /v1/industries", rt.listIndustries)
	mux.HandleFunc("GET /v1/metrics", rt.aggregatedMetrics)
	mux.HandleFunc("GET /v1/metrics/export", rt.exportMetrics)
	mux.HandleFunc("GET /v1/techniques", rt.listTechniques)

	mux.HandleFunc("GET /v1/blobs", rt.listBlobs)
	mux.HandleFunc("DELETE /v1/blobs", rt.removeBlobs)
	mux.HandleFunc("GET /v1/blobs/{path...}", rt.downloadBlob)
	mux.HandleFunc("DELETE /v1/blobs/{path...}", rt.removeBlob)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openapi(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(OpenAPIDocument)
}

type uploadForm struct {
	IndustryID string `validate:"required,max=128"`
	DataType   string `validate:"required,oneof=metrics findings hygiene techniques"`
}

func (rt *Router) uploadNoiseData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = domain.WrapError(domain.ErrInvalidFile, "read upload", err)
			rt.auditOversizedUpload(r, err)
			rt.writeError(w, r, err)
			return
		}
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse multipart form", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := uploadForm{
		IndustryID: strings.TrimSpace(r.FormValue("industry_id")),
		DataType:   strings.TrimSpace(r.FormValue("data_type")),
	}
	if err := rt.validate.Struct(form); err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "validate upload form", err))
		return
	}
	dataType, err := domain.ParseDataType(form.DataType)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the validator to reject oversized files.
	data, err := io.ReadAll(io.LimitReader(file, usecase.MaxUploadBytes+1))
	if err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "read upload", err))
		return
	}

	result, err := rt.ingestor.UploadAndProcess(r.Context(), domain.UploadFile{
		Filename:    header.Filename,
		ContentType: declaredContentType(header.Header.Get("Content-Type"), data),
		Size:        header.Size,
		Data:        data,
	}, form.IndustryID, dataType)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"industry_id": form.IndustryID,
		"data_type":   dataType,
		"result":      result,
	})
}

// auditOversizedUpload records the same validate and pipeline trail the ingestor
// would have. Form fields are unreadable past the body limit, so industry and data
// type are left empty.
func (rt *Router) auditOversizedUpload(r *http.Request, err error) {
	if rt.audit == nil {
		return
	}
	now := time.Now().UTC()
	for _, event := range []struct {
		stage   domain.IngestStage
		outcome domain.AuditOutcome
		err     error
	}{
		{domain.StagePipeline, domain.AuditAttempt, nil},
		{domain.StageValidate, domain.AuditAttempt, nil},
		{domain.StageValidate, domain.AuditFailure, err},
		{domain.StagePipeline, domain.AuditFailure, err},
	} {
		rt.audit.Record(r.Context(), domain.AuditEvent{
			Timestamp: now,
			Stage:     event.stage,
			Outcome:   event.outcome,
			Err:       event.err,
		})
	}
}

// declaredContentType falls back to sniffing only when the client sent nothing useful.
func declaredContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(strings.ToLower(declared), "application/octet-stream") {
		return declared
	}
	return mimetype.Detect(data).String()
}

func (rt *Router) listIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := rt.dashboard.Industries(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"industries": industries})
}

func (rt *Router) aggregatedMetrics(w http.ResponseWriter, r *http.Request) {
	selection := domain.ParseSelection(r.URL.Query().Get("industry"))
	aggregated, err := rt.dashboard.Metrics(r.Context(), selection)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selection": selection.String(),
		"metrics":   aggregated,
	})
}

func (rt *Router) exportMetrics(w http.ResponseWriter, r *http.Request) {
	selection := domain.ParseSelection(r.URL.Query().Get("industry"))
	aggregated, err := rt.dashboard.Metrics(r.Context(), selection)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteMetrics(&buf, selection, aggregated); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		mode := "single"
		if _, ok := selection.(domain.AllIndustries); ok {
			mode = "all"
		}
		rt.metrics.RecordExport(serviceName, mode)
	}

	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "metrics-"+selection.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) listTechniques(w http.ResponseWriter, r *http.Request) {
	selection := domain.ParseSelection(r.URL.Query().Get("industry"))
	techniques, err := rt.dashboard.Techniques(r.Context(), selection)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"techniques": techniques})
}

func (rt *Router) listBlobs(w http.ResponseWriter, r *http.Request) {
	blobs, err := rt.blobs.List(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if blobs == nil {
		blobs = []domain.BlobObject{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blobs": blobs})
}

func (rt *Router) downloadBlob(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	data, err := rt.blobs.Download(r.Context(), path)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) removeBlob(w http.ResponseWriter, r *http.Request) {
	if err := rt.blobs.Remove(r.Context(), r.PathValue("path")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) removeBlobs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paths []string `json:"paths" validate:"required,min=1,dive,required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "decode remove request", err))
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "validate remove request", err))
		return
	}
	if err := rt.blobs.Remove(r.Context(), req.Paths...); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("http_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{
		"error":      err.Error(),
		"code":       errorCode(err),
		"request_id": requestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
