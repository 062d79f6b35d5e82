package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient - реализация справочника поверх HTTP API внешнего сервиса.
// Сервис отвечает 200 на HEAD/GET существующей ссылки и 404 на отсутствующую.
type HTTPClient struct {
	httpClient *resty.Client
}

// NewHTTPClient создаёт клиент справочника для базового URL сервиса
func NewHTTPClient(baseURL, apiToken string) *HTTPClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	if apiToken != "" {
		restyClient.SetHeader("Authorization", "Bearer "+apiToken)
	}

	return &HTTPClient{httpClient: restyClient}
}

func (c *HTTPClient) WorkerExists(ctx context.Context, workerID string) (bool, error) {
	return c.exists(ctx, "workers", workerID)
}

func (c *HTTPClient) ProductExists(ctx context.Context, productID string) (bool, error) {
	return c.exists(ctx, "products", productID)
}

func (c *HTTPClient) ProcessExists(ctx context.Context, processID string) (bool, error) {
	return c.exists(ctx, "processes", processID)
}

func (c *HTTPClient) exists(ctx context.Context, kind, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"kind": kind, "id": id}).
		Head("/{kind}/{id}")
	if err != nil {
		return false, fmt.Errorf("catalog %s lookup: %w", kind, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("catalog %s lookup: unexpected status %d", kind, resp.StatusCode())
	}
}
