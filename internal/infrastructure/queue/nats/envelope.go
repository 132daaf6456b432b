package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

// ProcessHandler applies one request on the worker side.
type ProcessHandler func(ctx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error)

// ReplyError is a failure reported by the responder rather than by the transport.
type ReplyError struct {
	Message string
}

func (e *ReplyError) Error() string {
	return "process-noise-data replied with error: " + e.Message
}

type replyEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func encodeRequest(req domain.ProcessRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal process request: %w", err)
	}
	return payload, nil
}

func decodeReply(data []byte) (domain.ProcessedResult, error) {
	var reply replyEnvelope
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decode process reply: %w", err)
	}
	if reply.Error != "" {
		return nil, &ReplyError{Message: reply.Error}
	}
	if len(reply.Result) == 0 {
		return domain.ProcessedResult("null"), nil
	}
	return domain.ProcessedResult(reply.Result), nil
}

func handleRequest(ctx context.Context, data []byte, handler ProcessHandler, logger *slog.Logger) []byte {
	var req domain.ProcessRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("process_request_rejected", "error", err)
		return encodeReply(nil, domain.WrapError(domain.ErrInvalidInput, "decode process request", err))
	}

	result, err := handler(ctx, req)
	if err != nil {
		logger.Error("process_request_failed",
			"industry_id", req.IndustryID,
			"data_type", string(req.DataType),
			"error", err,
		)
	}
	return encodeReply(result, err)
}

func encodeReply(result domain.ProcessedResult, err error) []byte {
	reply := replyEnvelope{}
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Result = json.RawMessage(result)
	}
	data, marshalErr := json.Marshal(reply)
	if marshalErr != nil {
		data, _ = json.Marshal(replyEnvelope{Error: marshalErr.Error()})
	}
	return data
}
