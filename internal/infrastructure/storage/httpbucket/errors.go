package httpbucket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "storage status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("storage %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("storage %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// statusError maps a failed response to a typed error. The storage API
// reports some conditions as 400 with the real code in the JSON body.
func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	statusErr := &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}

	code := resp.StatusCode
	var payload struct {
		StatusCode string `json:"statusCode"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch payload.StatusCode {
		case "404":
			code = http.StatusNotFound
		case "409":
			code = http.StatusConflict
		}
	}

	switch code {
	case http.StatusNotFound:
		return domain.WrapError(domain.ErrNotFound, "storage "+operation, statusErr)
	case http.StatusConflict:
		return domain.WrapError(domain.ErrBlobExists, "storage "+operation, statusErr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.WrapError(domain.ErrUnauthorized, "storage "+operation, statusErr)
	default:
		return statusErr
	}
}

func classifyStorageError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	return resilience.ClassifyTransportError(err)
}
