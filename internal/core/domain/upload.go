package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type DataType string

const (
	DataTypeMetrics    DataType = "metrics"
	DataTypeFindings   DataType = "findings"
	DataTypeHygiene    DataType = "hygiene"
	DataTypeTechniques DataType = "techniques"
)

func ParseDataType(raw string) (DataType, error) {
	switch dt := DataType(raw); dt {
	case DataTypeMetrics, DataTypeFindings, DataTypeHygiene, DataTypeTechniques:
		return dt, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse data type", fmt.Errorf("unsupported data type %q", raw))
	}
}

// UploadFile is the transient payload of one ingestion call.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

type StoredBlob struct {
	Path string `json:"path"`
}

type BlobObject struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	PublicURL string    `json:"public_url,omitempty"`
}

// ProcessRequest is the body sent to the remote transformation function.
type ProcessRequest struct {
	IndustryID string          `json:"industry_id"`
	DataType   DataType        `json:"data_type"`
	Content    json.RawMessage `json:"content"`
}

// ProcessedResult is whatever the transformation function returned, kept verbatim.
type ProcessedResult json.RawMessage

func (r ProcessedResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}
