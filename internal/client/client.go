// Package client talks to the recognition service's /predict endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

type Client struct {
	url    *url.URL
	client *http.Client
}

// NewClient takes the full endpoint URL, e.g. http://localhost:8000/predict.
func NewClient(endpoint string, client *http.Client) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid url")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{url: u, client: client}, nil
}

// StatusError is returned when the service answers with anything but 200.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server response status code: %d, body: %s", e.StatusCode, e.Body)
}

// Predict uploads an image as the multipart field "file".
func (c *Client) Predict(ctx context.Context, filename string, image io.Reader) (*domain.PredictionResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.Wrap(err, "create form")
	}
	if _, err = io.Copy(part, image); err != nil {
		return nil, errors.Wrap(err, "copy image into form")
	}
	if err = writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := c.client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		resp, _ := io.ReadAll(response.Body)
		return nil, &StatusError{StatusCode: response.StatusCode, Body: string(resp)}
	}

	var resp domain.PredictionResponse
	if err = json.NewDecoder(response.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode response body")
	}
	return &resp, nil
}
