package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// CookieName - cookie сессии продавца.
const CookieName = "auth_token"

// Client - HTTP-клиент API InvoiceRoom.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FieldError - ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError - ошибка, которую вернул сервер.
type APIError struct {
	Status         int          `json:"-"`
	Code           string       `json:"code"`
	Message        string       `json:"message"`
	Details        []FieldError `json:"details"`
	CurrentStatus  string       `json:"current_status"`
	ExpectedStatus []string     `json:"expected_status"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d): %s", e.Code, e.Status, e.Message)
	for _, d := range e.Details {
		fmt.Fprintf(&b, "; %s %s", d.Field, d.Message)
	}
	if e.CurrentStatus != "" {
		fmt.Fprintf(&b, "; current=%s expected=%s", e.CurrentStatus, strings.Join(e.ExpectedStatus, ","))
	}
	return b.String()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
	Error *APIError `json:"error"`
}

// Response - сырой ответ сервера.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
}

// Do отправляет запрос. payload кодируется в JSON, token уходит cookie сессии.
// Ответ не 2xx превращается в *APIError.
func (c *Client) Do(ctx context.Context, method, path string, payload any, token string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	out := &Response{Status: resp.StatusCode, Header: resp.Header, Cookies: resp.Cookies(), Body: b}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return out, nil
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err == nil && env.Error != nil {
		env.Error.Status = resp.StatusCode
		return out, env.Error
	}
	return out, &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(b))}
}

// JSON выполняет запрос и раскладывает data ответа в out. Возвращает meta.total, если он есть.
func (c *Client) JSON(ctx context.Context, method, path string, payload any, token string, out any) (*Response, int64, error) {
	resp, err := c.Do(ctx, method, path, payload, token)
	if err != nil {
		return resp, 0, err
	}
	if out == nil || len(resp.Body) == 0 {
		return resp, 0, nil
	}
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return resp, 0, fmt.Errorf("decode: %w", err)
	}
	var total int64
	if env.Meta != nil {
		total = env.Meta.Total
	}
	if len(env.Data) == 0 {
		return resp, total, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resp, total, fmt.Errorf("decode data: %w", err)
	}
	return resp, total, nil
}

// Download сохраняет бинарный ответ в w и возвращает имя файла из Content-Disposition.
func (c *Client) Download(ctx context.Context, path, token string, w io.Writer) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, token)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(resp.Body); err != nil {
		return "", err
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return name, nil
}

// SessionToken извлекает cookie сессии продавца из ответа.
func SessionToken(resp *Response) (string, error) {
	for _, c := range resp.Cookies {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no auth cookie in response")
}

// WebSocketURL переводит адрес API в ws:// или wss://.
func (c *Client) WebSocketURL(path string) string {
	switch {
	case strings.HasPrefix(c.BaseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.BaseURL, "https://") + path
	case strings.HasPrefix(c.BaseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.BaseURL, "http://") + path
	}
	return "ws://" + c.BaseURL + path
}
