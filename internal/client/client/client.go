package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Tokens is a token pair as returned by the gateway.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResult is the body of signup and login.
type AuthResult struct {
	Message string `json:"message"`
	Auth    Tokens `json:"auth"`
	User    User   `json:"user"`
}

type Usage struct {
	PromptTokens int64 `json:"prompt_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type Billing struct {
	Cost             int64 `json:"cost"`
	RemainingCredits int64 `json:"remaining_credits"`
}

// TranscribeResult is the body of a successful /process-voice call. Data is
// the engine payload as is.
type TranscribeResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Usage   Usage           `json:"usage"`
	Billing Billing         `json:"billing"`
}

type Transaction struct {
	ID          int64     `json:"id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Client talks to one gateway. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates refreshToken; the old value must not be used again.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out Tokens
	err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", "", map[string]string{"refreshToken": refreshToken}, nil)
}

func (c *Client) Balance(ctx context.Context, accessToken string) (int64, error) {
	var out struct {
		Credits int64 `json:"credits"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/billing/balance", accessToken, nil, &out); err != nil {
		return 0, err
	}
	return out.Credits, nil
}

func (c *Client) Transactions(ctx context.Context, accessToken string, limit int) ([]Transaction, error) {
	path := "/billing/transactions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// Transcribe uploads the file at path as the "audio" form field.
func (c *Client) Transcribe(ctx context.Context, accessToken, path string) (*TranscribeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("audio", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-voice", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out TranscribeResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	e := &APIError{Status: resp.StatusCode, Message: body.Message}
	if e.Message == "" {
		e.Message = body.Error
	}
	if len(body.Details) > 0 {
		var billing struct {
			Cost    int64 `json:"cost"`
			Balance int64 `json:"balance"`
		}
		var text string
		switch {
		case json.Unmarshal(body.Details, &billing) == nil:
			e.Cost, e.Balance = billing.Cost, billing.Balance
		case json.Unmarshal(body.Details, &text) == nil && text != "":
			e.Message = strings.TrimSpace(e.Message + ": " + text)
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
