// Package generator talks to an OpenAI-compatible chat-completions endpoint
// to turn study material into question/answer pairs.
package generator

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

	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
)

// ErrNotConfigured is returned when no API key has been supplied.
var ErrNotConfigured = errors.New("card generator is not configured")

// ErrBadOutput is returned when the model reply cannot be turned into cards.
var ErrBadOutput = errors.New("card generator returned unusable output")

const temperature = 0.7

type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// New builds a client for the given chat-completions endpoint.
func New(endpoint, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type rawCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func systemPrompt(count int, harder bool) string {
	level := "balanced"
	if harder {
		level = "challenging"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert educational content creator specializing in high-quality flashcards.\n")
	fmt.Fprintf(&b, "Given the content provided, create %d flashcards with a clear question on the front and a complete answer on the back.\n", count)
	fmt.Fprintf(&b, "Make the flashcards %s difficulty, focusing on the most important concepts.\n", level)
	b.WriteString("The output MUST be a JSON object with a single key 'flashcards' holding an array of objects with exactly the keys 'front' and 'back'.")
	if harder {
		b.WriteString("\nFor increased difficulty, ask questions that need deeper understanding, use precise terminology, probe edge cases and combine several concepts.")
	}
	return b.String()
}

func (c *Client) Generate(ctx context.Context, req Request) ([]models.CardSeed, error) {
	log := logger.FromContext(ctx).WithPrefix("generator").WithField("deck_id", req.DeckID)

	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req.Count, req.IncreaseDifficulty)},
			{Role: "user", Content: fmt.Sprintf("Create %d flashcards from the following content. Respond with {\"flashcards\": [{\"front\": \"...\", \"back\": \"...\"}]}.\n\nContent:\n%s", req.Count, req.Content)},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    temperature,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("requesting %d cards from model %s, content_len=%d", req.Count, c.model, len(req.Content))
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error("failed to call completions endpoint: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug("completion received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("completion request failed: status=%d, body=%s", resp.StatusCode, string(msg))
		return nil, fmt.Errorf("completions status %d: %s", resp.StatusCode, string(msg))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode completion response: %v", err)
		return nil, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrBadOutput)
	}

	raw, err := parseCards(out.Choices[0].Message.Content)
	if err != nil {
		log.Warn("unusable completion: %v", err)
		return nil, err
	}

	seeds := make([]models.CardSeed, len(raw))
	for i, rc := range raw {
		seeds[i] = models.CardSeed{DeckID: req.DeckID, Front: rc.Front, Back: rc.Back}
	}
	log.Info("generated %d cards", len(seeds))
	return seeds, nil
}

// parseCards accepts either {"flashcards":[...]} or a bare array of
// {"front","back"} objects. Every card needs both sides.
func parseCards(text string) ([]rawCard, error) {
	text = strings.TrimSpace(text)

	var cards []rawCard
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &cards); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
		}
	} else {
		var wrapped struct {
			Flashcards *[]rawCard `json:"flashcards"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
		}
		if wrapped.Flashcards == nil {
			return nil, fmt.Errorf("%w: missing flashcards array", ErrBadOutput)
		}
		cards = *wrapped.Flashcards
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no flashcards", ErrBadOutput)
	}
	for i := range cards {
		cards[i].Front = strings.TrimSpace(cards[i].Front)
		cards[i].Back = strings.TrimSpace(cards[i].Back)
		if cards[i].Front == "" || cards[i].Back == "" {
			return nil, fmt.Errorf("%w: card %d is missing front or back", ErrBadOutput, i)
		}
	}
	return cards, nil
}
