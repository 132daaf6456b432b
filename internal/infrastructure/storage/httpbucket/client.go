package httpbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
	"github.com/kirillkom/decision-noise/internal/infrastructure/resilience"
)

const listPageSize = 100

// Client talks to a storage REST API rooted at baseURL (e.g. https://host/storage/v1).
type Client struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, bucket, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Put(ctx context.Context, key string, data []byte, opts ports.PutOptions) (string, error) {
	var response struct {
		Key string `json:"Key"`
	}
	err := c.execute(ctx, "storage.upload", func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodPost, c.objectURL(key), bytes.NewReader(data))
		if err != nil {
			return err
		}
		contentType := opts.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		req.Header.Set("Content-Type", contentType)
		if opts.CacheControl != "" {
			req.Header.Set("Cache-Control", "max-age="+opts.CacheControl)
		}
		req.Header.Set("x-upsert", fmt.Sprintf("%t", opts.Upsert))
		return c.doJSON(req, "upload", &response)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(response.Key, c.bucket+"/"), nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := c.execute(ctx, "storage.download", func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodGet, c.objectURL(key), nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("storage download request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError("download", resp)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read download body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

type listedObject struct {
	Name      string    `json:"name"`
	ID        *string   `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
}

func (c *Client) List(ctx context.Context) ([]domain.BlobObject, error) {
	objects := make([]domain.BlobObject, 0)
	for offset := 0; ; offset += listPageSize {
		var page []listedObject
		err := c.execute(ctx, "storage.list", func(ctx context.Context) error {
			body, err := json.Marshal(map[string]any{
				"prefix": "",
				"limit":  listPageSize,
				"offset": offset,
				"sortBy": map[string]string{"column": "name", "order": "asc"},
			})
			if err != nil {
				return fmt.Errorf("marshal list request: %w", err)
			}
			req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/object/list/"+url.PathEscape(c.bucket), bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			return c.doJSON(req, "list", &page)
		})
		if err != nil {
			return nil, err
		}

		for _, obj := range page {
			// Entries without an id are folder placeholders.
			if obj.ID == nil {
				continue
			}
			objects = append(objects, domain.BlobObject{
				Name:      obj.Name,
				Size:      obj.Metadata.Size,
				UpdatedAt: obj.UpdatedAt,
			})
		}
		if len(page) < listPageSize {
			return objects, nil
		}
	}
}

// Delete removes the keys and fails when the service did not delete all of them.
func (c *Client) Delete(ctx context.Context, keys []string) error {
	var deleted []struct {
		Name string `json:"name"`
	}
	err := c.execute(ctx, "storage.remove", func(ctx context.Context) error {
		body, err := json.Marshal(map[string][]string{"prefixes": keys})
		if err != nil {
			return fmt.Errorf("marshal remove request: %w", err)
		}
		req, err := c.newRequest(ctx, http.MethodDelete, c.baseURL+"/object/"+url.PathEscape(c.bucket), bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.doJSON(req, "remove", &deleted)
	})
	if err != nil {
		return err
	}

	removed := make(map[string]struct{}, len(deleted))
	for _, obj := range deleted {
		removed[obj.Name] = struct{}{}
	}
	var missing []string
	for _, key := range keys {
		if _, ok := removed[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrNotFound, "storage remove", fmt.Errorf("missing keys %s", strings.Join(missing, ",")))
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return c.baseURL + "/object/public/" + url.PathEscape(c.bucket) + "/" + url.PathEscape(key)
}

func (c *Client) objectURL(key string) string {
	return c.baseURL + "/object/" + url.PathEscape(c.bucket) + "/" + url.PathEscape(key)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create storage request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode storage %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifyStorageError)
	} else {
		err = fn(ctx)
	}
	if err != nil && resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
