package httpfn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/infrastructure/resilience"
)

const maxResponseBytes = 8 << 20

// Client invokes a named edge function over HTTP: POST {baseURL}/{name}.
type Client struct {
	baseURL    string
	name       string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, name, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		name:       strings.Trim(name, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type FunctionError struct {
	Function   string
	StatusCode int
	Status     string
	Body       string
}

func (e *FunctionError) Error() string {
	if e == nil {
		return "function error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("function %s status: %s", e.Function, e.Status)
	}
	return fmt.Sprintf("function %s status: %s: %s", e.Function, e.Status, strings.TrimSpace(e.Body))
}

func (c *Client) Process(ctx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", c.name, err)
	}

	var result domain.ProcessedResult
	call := func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.name, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", c.name, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
			httpReq.Header.Set("apikey", c.apiKey)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("function %s request: %w", c.name, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read %s response: %w", c.name, err)
		}
		if resp.StatusCode >= 300 {
			return &FunctionError{
				Function:   c.name,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(raw),
			}
		}
		result = asJSONResult(raw)
		return nil
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "function."+c.name, call, classifyFunctionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "function "+c.name, err)
		}
		return nil, err
	}
	return result, nil
}

// asJSONResult keeps JSON bodies verbatim and wraps plain text as a JSON string.
func asJSONResult(raw []byte) domain.ProcessedResult {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.ProcessedResult("null")
	}
	if json.Valid(trimmed) {
		return domain.ProcessedResult(trimmed)
	}
	quoted, _ := json.Marshal(string(raw))
	return domain.ProcessedResult(quoted)
}

func classifyFunctionError(err error) resilience.ErrorClassification {
	var fnErr *FunctionError
	if errors.As(err, &fnErr) && fnErr.StatusCode < http.StatusInternalServerError {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	return resilience.ClassifyTransportError(err)
}
