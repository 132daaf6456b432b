package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

type validatorFake struct {
	ok bool
}

func (f validatorFake) Validate(domain.UploadFile) bool { return f.ok }

type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

func (l *callLog) String() string { return strings.Join(l.calls, ",") }

type noiseStorageFake struct {
	t         *testing.T
	log       *callLog
	forbidden bool
	path      string
	uploadErr error
	content   []byte
	readErr   error
}

func (f *noiseStorageFake) Upload(_ context.Context, file domain.UploadFile) (domain.StoredBlob, error) {
	if f.forbidden {
		f.t.Fatalf("upload must not be attempted")
	}
	f.log.add("upload")
	if f.uploadErr != nil {
		return domain.StoredBlob{}, f.uploadErr
	}
	if f.content == nil {
		f.content = file.Data
	}
	return domain.StoredBlob{Path: f.path}, nil
}

func (f *noiseStorageFake) Download(_ context.Context, path string) ([]byte, error) {
	if f.forbidden {
		f.t.Fatalf("download must not be attempted")
	}
	f.log.add("download:" + path)
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.content, nil
}

func (f *noiseStorageFake) List(context.Context) ([]domain.BlobObject, error) {
	return nil, errors.New("not implemented")
}

func (f *noiseStorageFake) Remove(context.Context, ...string) error {
	return errors.New("not implemented")
}

func (f *noiseStorageFake) PublicURL(path string) string { return path }

type processorFake struct {
	log    *callLog
	got    domain.ProcessRequest
	result domain.ProcessedResult
	err    error
}

func (f *processorFake) Process(_ context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error) {
	f.log.add("process")
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type auditRecorder struct {
	events []domain.AuditEvent
}

func (r *auditRecorder) Record(_ context.Context, event domain.AuditEvent) {
	r.events = append(r.events, event)
}

func (r *auditRecorder) has(stage domain.IngestStage, outcome domain.AuditOutcome) bool {
	for _, event := range r.events {
		if event.Stage == stage && event.Outcome == outcome {
			return true
		}
	}
	return false
}

func jsonUpload(body string) domain.UploadFile {
	return domain.UploadFile{
		Filename:    "metrics.json",
		ContentType: "application/json",
		Size:        int64(len(body)),
		Data:        []byte(body),
	}
}

func newIngestForTest(valid bool, storage *noiseStorageFake, processor *processorFake, audit *auditRecorder) *IngestNoiseDataUseCase {
	return NewIngestNoiseDataUseCase(validatorFake{ok: valid}, storage, processor, audit, slog.New(slog.DiscardHandler))
}

func TestUploadAndProcessSuccessRunsStepsInOrder(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, path: "id.json"}
	processor := &processorFake{log: log, result: domain.ProcessedResult(`{"applied":1}`)}
	audit := &auditRecorder{}
	uc := newIngestForTest(true, storage, processor, audit)

	result, err := uc.UploadAndProcess(context.Background(), jsonUpload(`[{"name":"A","value":10}]`), "legal", domain.DataTypeMetrics)
	if err != nil {
		t.Fatalf("UploadAndProcess() error = %v", err)
	}
	if string(result) != `{"applied":1}` {
		t.Fatalf("expected verbatim result, got %s", result)
	}
	if log.String() != "upload,download:id.json,process" {
		t.Fatalf("unexpected call order: %s", log)
	}
	if processor.got.IndustryID != "legal" || processor.got.DataType != domain.DataTypeMetrics {
		t.Fatalf("unexpected process request: %+v", processor.got)
	}
	if string(processor.got.Content) != `[{"name":"A","value":10}]` {
		t.Fatalf("unexpected content: %s", processor.got.Content)
	}

	for _, stage := range []domain.IngestStage{
		domain.StageValidate, domain.StageUpload, domain.StageReadback,
		domain.StageParse, domain.StageProcess, domain.StagePipeline,
	} {
		if !audit.has(stage, domain.AuditAttempt) || !audit.has(stage, domain.AuditSuccess) {
			t.Fatalf("expected attempt and success audit events for %s", stage)
		}
	}
	for _, event := range audit.events {
		if event.IndustryID != "legal" || event.DataType != domain.DataTypeMetrics || event.Timestamp.IsZero() {
			t.Fatalf("audit event missing industry/data type/timestamp: %+v", event)
		}
	}
}

func TestUploadAndProcessInvalidFileNeverUploads(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, forbidden: true}
	processor := &processorFake{log: log}
	audit := &auditRecorder{}
	uc := newIngestForTest(false, storage, processor, audit)

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{}`), "legal", domain.DataTypeFindings)
	if !domain.IsKind(err, domain.ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile, got %v", err)
	}
	if len(log.calls) != 0 {
		t.Fatalf("expected no collaborator calls, got %s", log)
	}
	if !audit.has(domain.StageValidate, domain.AuditFailure) || !audit.has(domain.StagePipeline, domain.AuditFailure) {
		t.Fatalf("expected validate and pipeline failure audit events")
	}
}

func TestUploadAndProcessUploadErrorIsUploadFailed(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, uploadErr: errors.New("bucket unavailable")}
	processor := &processorFake{log: log}
	uc := newIngestForTest(true, storage, processor, &auditRecorder{})

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{}`), "legal", domain.DataTypeHygiene)
	if !domain.IsKind(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if log.String() != "upload" {
		t.Fatalf("expected only upload call, got %s", log)
	}
}

func TestUploadAndProcessEmptyPathIsUploadFailed(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, path: ""}
	processor := &processorFake{log: log}
	uc := newIngestForTest(true, storage, processor, &auditRecorder{})

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{}`), "legal", domain.DataTypeMetrics)
	if !domain.IsKind(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed for empty path, got %v", err)
	}
	if log.String() != "upload" {
		t.Fatalf("download must not follow an empty path, got %s", log)
	}
}

func TestUploadAndProcessReadbackError(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, path: "id.json", readErr: errors.New("timeout")}
	processor := &processorFake{log: log}
	uc := newIngestForTest(true, storage, processor, &auditRecorder{})

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{}`), "legal", domain.DataTypeMetrics)
	if !domain.IsKind(err, domain.ErrReadbackFailed) {
		t.Fatalf("expected ErrReadbackFailed, got %v", err)
	}
	if log.String() != "upload,download:id.json" {
		t.Fatalf("unexpected calls: %s", log)
	}
}

func TestUploadAndProcessMalformedJSONSkipsProcessing(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, path: "id.txt"}
	processor := &processorFake{log: log}
	audit := &auditRecorder{}
	uc := newIngestForTest(true, storage, processor, audit)

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{"name":`), "legal", domain.DataTypeMetrics)
	if !domain.IsKind(err, domain.ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent, got %v", err)
	}
	if strings.Contains(log.String(), "process") {
		t.Fatalf("processor must not be called after parse failure: %s", log)
	}
	if !audit.has(domain.StageParse, domain.AuditFailure) {
		t.Fatalf("expected parse failure audit event")
	}
}

func TestUploadAndProcessInvalidUTF8IsMalformed(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, path: "id.txt", content: []byte{0xff, 0xfe, '{', '}'}}
	processor := &processorFake{log: log}
	uc := newIngestForTest(true, storage, processor, &auditRecorder{})

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{}`), "legal", domain.DataTypeMetrics)
	if !domain.IsKind(err, domain.ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent, got %v", err)
	}
}

func TestUploadAndProcessAcceptsByteOrderMark(t *testing.T) {
	log := &callLog{}
	storage := &noiseStorageFake{t: t, log: log, path: "id.json", content: append([]byte{0xEF, 0xBB, 0xBF}, []byte(`["a"]`)...)}
	processor := &processorFake{log: log, result: domain.ProcessedResult(`{}`)}
	uc := newIngestForTest(true, storage, processor, &auditRecorder{})

	if _, err := uc.UploadAndProcess(context.Background(), jsonUpload(`["a"]`), "legal", domain.DataTypeFindings); err != nil {
		t.Fatalf("UploadAndProcess() error = %v", err)
	}
	if string(processor.got.Content) != `["a"]` {
		t.Fatalf("unexpected content: %s", processor.got.Content)
	}
}

func TestUploadAndProcessWrapsRemoteError(t *testing.T) {
	log := &callLog{}
	remoteErr := errors.New("function returned 500: boom")
	storage := &noiseStorageFake{t: t, log: log, path: "id.json"}
	processor := &processorFake{log: log, err: remoteErr}
	audit := &auditRecorder{}
	uc := newIngestForTest(true, storage, processor, audit)

	_, err := uc.UploadAndProcess(context.Background(), jsonUpload(`{}`), "legal", domain.DataTypeTechniques)
	if !domain.IsKind(err, domain.ErrRemoteProcessingFailed) {
		t.Fatalf("expected ErrRemoteProcessingFailed, got %v", err)
	}
	if !errors.Is(err, remoteErr) {
		t.Fatalf("expected original diagnostic to be attached, got %v", err)
	}
	if log.String() != "upload,download:id.json,process" {
		t.Fatalf("expected a single process call, got %s", log)
	}
	if !audit.has(domain.StageProcess, domain.AuditFailure) {
		t.Fatalf("expected process failure audit event")
	}
}
