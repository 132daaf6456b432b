package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

type fileValidator interface {
	Validate(file domain.UploadFile) bool
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IngestNoiseDataUseCase runs validate -> upload -> readback -> parse -> process.
// Steps run strictly in order and nothing is retried.
type IngestNoiseDataUseCase struct {
	validator fileValidator
	blobs     ports.NoiseDataStorage
	processor ports.NoiseDataProcessor
	audit     ports.AuditSink
	logger    *slog.Logger
	now       func() time.Time
}

func NewIngestNoiseDataUseCase(
	validator fileValidator,
	blobs ports.NoiseDataStorage,
	processor ports.NoiseDataProcessor,
	audit ports.AuditSink,
	logger *slog.Logger,
) *IngestNoiseDataUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = nopAuditSink{}
	}
	return &IngestNoiseDataUseCase{
		validator: validator,
		blobs:     blobs,
		processor: processor,
		audit:     audit,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type ingestRun struct {
	industryID string
	dataType   domain.DataType
	path       string
}

func (uc *IngestNoiseDataUseCase) UploadAndProcess(
	ctx context.Context,
	file domain.UploadFile,
	industryID string,
	dataType domain.DataType,
) (domain.ProcessedResult, error) {
	run := &ingestRun{industryID: industryID, dataType: dataType}

	uc.record(ctx, run, domain.StagePipeline, domain.AuditAttempt, nil)
	result, err := uc.pipeline(ctx, run, file)
	if err != nil {
		uc.record(ctx, run, domain.StagePipeline, domain.AuditFailure, err)
		uc.logger.Error("noise_data_ingest_failed",
			"industry_id", industryID,
			"data_type", string(dataType),
			"path", run.path,
			"error", err,
		)
		return nil, err
	}
	uc.record(ctx, run, domain.StagePipeline, domain.AuditSuccess, nil)
	return result, nil
}

func (uc *IngestNoiseDataUseCase) pipeline(ctx context.Context, run *ingestRun, file domain.UploadFile) (domain.ProcessedResult, error) {
	if err := uc.step(ctx, run, domain.StageValidate, func() error {
		return uc.validate(file)
	}); err != nil {
		return nil, err
	}

	if err := uc.step(ctx, run, domain.StageUpload, func() error {
		path, err := uc.upload(ctx, file)
		run.path = path
		return err
	}); err != nil {
		return nil, err
	}

	var raw []byte
	if err := uc.step(ctx, run, domain.StageReadback, func() error {
		var err error
		raw, err = uc.readback(ctx, run.path)
		return err
	}); err != nil {
		return nil, err
	}

	var content json.RawMessage
	if err := uc.step(ctx, run, domain.StageParse, func() error {
		var err error
		content, err = parseContent(raw)
		return err
	}); err != nil {
		return nil, err
	}

	var result domain.ProcessedResult
	if err := uc.step(ctx, run, domain.StageProcess, func() error {
		var err error
		result, err = uc.process(ctx, run, content)
		return err
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *IngestNoiseDataUseCase) step(ctx context.Context, run *ingestRun, stage domain.IngestStage, fn func() error) error {
	uc.record(ctx, run, stage, domain.AuditAttempt, nil)
	if err := fn(); err != nil {
		uc.record(ctx, run, stage, domain.AuditFailure, err)
		return err
	}
	uc.record(ctx, run, stage, domain.AuditSuccess, nil)
	return nil
}

func (uc *IngestNoiseDataUseCase) validate(file domain.UploadFile) error {
	if !uc.validator.Validate(file) {
		return domain.WrapError(domain.ErrInvalidFile, "validate file",
			fmt.Errorf("file %q of type %q and %d bytes rejected", file.Filename, file.ContentType, file.Size))
	}
	return nil
}

func (uc *IngestNoiseDataUseCase) upload(ctx context.Context, file domain.UploadFile) (string, error) {
	blob, err := uc.blobs.Upload(ctx, file)
	if err != nil {
		return "", domain.WrapError(domain.ErrUploadFailed, "upload file", err)
	}
	if blob.Path == "" {
		return "", domain.WrapError(domain.ErrUploadFailed, "upload file", errors.New("storage returned an empty path"))
	}
	return blob.Path, nil
}

func (uc *IngestNoiseDataUseCase) readback(ctx context.Context, path string) ([]byte, error) {
	raw, err := uc.blobs.Download(ctx, path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrReadbackFailed, "read uploaded file", err)
	}
	return raw, nil
}

func parseContent(raw []byte) (json.RawMessage, error) {
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrMalformedContent, "decode file text", errors.New("content is not valid UTF-8"))
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var content json.RawMessage
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedContent, "parse file json", err)
	}
	return content, nil
}

func (uc *IngestNoiseDataUseCase) process(ctx context.Context, run *ingestRun, content json.RawMessage) (domain.ProcessedResult, error) {
	result, err := uc.processor.Process(ctx, domain.ProcessRequest{
		IndustryID: run.industryID,
		DataType:   run.dataType,
		Content:    content,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrRemoteProcessingFailed, "process noise data", err)
	}
	return result, nil
}

func (uc *IngestNoiseDataUseCase) record(ctx context.Context, run *ingestRun, stage domain.IngestStage, outcome domain.AuditOutcome, err error) {
	uc.audit.Record(ctx, domain.AuditEvent{
		Timestamp:  uc.now(),
		Stage:      stage,
		Outcome:    outcome,
		IndustryID: run.industryID,
		DataType:   run.dataType,
		Path:       run.path,
		Err:        err,
	})
}

type nopAuditSink struct{}

func (nopAuditSink) Record(context.Context, domain.AuditEvent) {}
