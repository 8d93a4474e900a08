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

type GeminiRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewGeminiClient(baseURL, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: gemini api key missing")
	}
	if model == "" {
		return nil, fmt.Errorf("llm: gemini model missing")
	}
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (plan.Completion, error) {
	body, err := json.Marshal(GeminiRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	})
	if err != nil {
		return plan.Completion{}, err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return plan.Completion{}, fmt.Errorf("llm: gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return plan.Completion{}, fmt.Errorf("llm: gemini call: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return plan.Completion{}, fmt.Errorf("llm: gemini read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var ge geminiError
		if json.Unmarshal(respBytes, &ge) == nil && ge.Error.Message != "" {
			return plan.Completion{}, fmt.Errorf("llm: gemini api error (%d): %s", resp.StatusCode, ge.Error.Message)
		}
		return plan.Completion{}, fmt.Errorf("llm: gemini api error (%d): %s", resp.StatusCode, preview(respBytes))
	}

	var out GeminiResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return plan.Completion{}, fmt.Errorf("llm: decode gemini response: %v | body: %s", err, preview(respBytes))
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return plan.Completion{}, fmt.Errorf("llm: gemini blocked prompt: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return plan.Completion{}, fmt.Errorf("llm: gemini returned no candidates")
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return plan.Completion{
		Text:       strings.TrimSpace(sb.String()),
		TokensUsed: out.UsageMetadata.TotalTokenCount,
	}, nil
}

func preview(b []byte) string {
	s := string(b)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
