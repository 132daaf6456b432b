package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/decision-noise/internal/config"
	"github.com/kirillkom/decision-noise/internal/core/domain"
)

type ingestorFake struct {
	gotFile     domain.UploadFile
	gotIndustry string
	gotDataType domain.DataType
	result      domain.ProcessedResult
	err         error
}

func (f *ingestorFake) UploadAndProcess(_ context.Context, file domain.UploadFile, industryID string, dataType domain.DataType) (domain.ProcessedResult, error) {
	f.gotFile = file
	f.gotIndustry = industryID
	f.gotDataType = dataType
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type dashboardFake struct {
	gotSelection domain.IndustrySelection
	industries   []domain.Industry
	metrics      []domain.AggregatedMetric
	techniques   []domain.Technique
	err          error
}

func (f *dashboardFake) Industries(context.Context) ([]domain.Industry, error) {
	return f.industries, f.err
}

func (f *dashboardFake) Metrics(_ context.Context, selection domain.IndustrySelection) ([]domain.AggregatedMetric, error) {
	f.gotSelection = selection
	return f.metrics, f.err
}

func (f *dashboardFake) Techniques(_ context.Context, selection domain.IndustrySelection) ([]domain.Technique, error) {
	f.gotSelection = selection
	return f.techniques, f.err
}

type blobsFake struct {
	objects map[string][]byte
	removed []string
}

func (f *blobsFake) Upload(context.Context, domain.UploadFile) (domain.StoredBlob, error) {
	return domain.StoredBlob{}, errors.New("not implemented")
}

func (f *blobsFake) Download(_ context.Context, path string) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "download", errors.New(path))
	}
	return data, nil
}

func (f *blobsFake) List(context.Context) ([]domain.BlobObject, error) {
	out := make([]domain.BlobObject, 0, len(f.objects))
	for name, data := range f.objects {
		out = append(out, domain.BlobObject{Name: name, Size: int64(len(data))})
	}
	return out, nil
}

func (f *blobsFake) Remove(_ context.Context, paths ...string) error {
	for _, path := range paths {
		if _, ok := f.objects[path]; !ok {
			return domain.WrapError(domain.ErrService, "remove", domain.WrapError(domain.ErrNotFound, "remove", errors.New(path)))
		}
	}
	for _, path := range paths {
		delete(f.objects, path)
		f.removed = append(f.removed, path)
	}
	return nil
}

func (f *blobsFake) PublicURL(path string) string { return "https://cdn.example/" + path }

func newTestHandler(cfg config.Config, ingestor *ingestorFake, dashboard *dashboardFake, blobs *blobsFake) http.Handler {
	if ingestor == nil {
		ingestor = &ingestorFake{}
	}
	if dashboard == nil {
		dashboard = &dashboardFake{}
	}
	if blobs == nil {
		blobs = &blobsFake{objects: map[string][]byte{}}
	}
	return NewRouter(cfg, ingestor, dashboard, blobs).Handler()
}
