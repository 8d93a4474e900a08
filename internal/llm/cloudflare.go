package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/5-07/sweeten/internal/plan"
)

type cfMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Workers AI models differ in whether they read prompt or messages, so
// both are sent.
type cfRequest struct {
	Prompt   string      `json:"prompt"`
	Messages []cfMessage `json:"messages"`
}

type cfResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

type cfResult struct {
	Response string `json:"response"`
	Usage    struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type CloudflareClient struct {
	baseURL   string
	accountID string
	apiKey    string
	model     string
	client    *http.Client
}

func NewCloudflareClient(baseURL, accountID, apiKey, model string) (*CloudflareClient, error) {
	if accountID == "" || apiKey == "" || model == "" {
		return nil, fmt.Errorf("llm: missing Cloudflare AI credentials")
	}
	return &CloudflareClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		apiKey:    apiKey,
		model:     model,
		client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *CloudflareClient) Generate(ctx context.Context, prompt string) (plan.Completion, error) {
	body, err := json.Marshal(cfRequest{
		Prompt: prompt,
		Messages: []cfMessage{
			{Role: "system", Content: "You write short weekly lifestyle plans for people managing diabetes."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return plan.Completion{}, err
	}
	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return plan.Completion{}, fmt.Errorf("llm: cloudflare request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return plan.Completion{}, fmt.Errorf("llm: cloudflare call: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return plan.Completion{}, fmt.Errorf("llm: cloudflare read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return plan.Completion{}, fmt.Errorf("llm: cloudflare error %d: %s", resp.StatusCode, preview(respBytes))
	}

	var out cfResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		// Some models answer with bare text.
		return plan.Completion{Text: strings.TrimSpace(string(respBytes))}, nil
	}
	if !out.Success && len(out.Errors) > 0 {
		return plan.Completion{}, fmt.Errorf("llm: cloudflare error %d: %s", out.Errors[0].Code, out.Errors[0].Message)
	}

	var res cfResult
	if err := json.Unmarshal(out.Result, &res); err == nil && res.Response != "" {
		return plan.Completion{Text: strings.TrimSpace(res.Response), TokensUsed: res.Usage.TotalTokens}, nil
	}
	var text string
	if err := json.Unmarshal(out.Result, &text); err == nil {
		return plan.Completion{Text: strings.TrimSpace(text)}, nil
	}
	return plan.Completion{}, fmt.Errorf("llm: unexpected cloudflare result: %s", preview(out.Result))
}
