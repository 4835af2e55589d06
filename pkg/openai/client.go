package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key was configured
var ErrNotConfigured = errors.New("OPENAI_API_KEY not set. Use heuristic mode or configure an LLM")

// Client represents an OpenAI API client
type Client struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// New creates a new OpenAI client. With an empty apiKey the client is unconfigured
// and every call returns ErrNotConfigured.
func New(apiKey, apiBase, model string) *Client {
	c := &Client{
		model:  model,
		logger: logger.New("openai"),
	}
	if apiKey == "" {
		return c
	}

	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}
	c.client = openai.NewClientWithConfig(config)
	return c
}

// Configured reports whether the client has an API key
func (c *Client) Configured() bool {
	return c != nil && c.client != nil
}

// GeneratePlan asks the model for a timed cooking plan that fits the time limit
func (c *Client) GeneratePlan(ctx context.Context, ingredients []string, timeLimitMin int) (*models.Plan, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`
You are a cooking expert. Plan one dinner dish using these ingredients: %s.
The whole plan must fit in %d minutes. Steps may overlap when they can run in parallel.
Return the plan in the following JSON format:
{
  "dish": "Dish name",
  "steps": [
    {"label": "What to do", "start_offset_sec": 0, "duration_sec": 180},
    ...
  ],
  "substitutions": ["No X? Use Y.", ...]
}
Offsets are seconds from the start of cooking, durations are positive seconds.
Only return the JSON, no other text.
`, strings.Join(ingredients, ", "), timeLimitMin)

	c.logger.Info("Requesting plan for %d ingredients within %d minutes", len(ingredients), timeLimitMin)
	c.logger.Debug("OpenAI prompt (first 100 chars): %s", truncateString(prompt, 100))

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a cooking expert who turns the contents of a fridge into a realistic, timed dinner plan.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI API")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))

	// Clean up the response - sometimes the model returns markdown code blocks
	content = cleanJSONResponse(content)

	var plan models.Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		c.logger.Error("Failed to parse response: %v, Content: %s", err, content)
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	plan.Provenance = models.ProvenanceLLM

	c.logger.Info("Got plan %q with %d steps", plan.Dish, len(plan.Steps))
	return &plan, nil
}

// ExtractIngredientsFromPhoto lists the food visible in a fridge or pantry photo
func (c *Client) ExtractIngredientsFromPhoto(ctx context.Context, photoURL string) ([]string, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	prompt := `You are a computer vision expert. Look at the image of a fridge or pantry and list all visible food ingredients.
Return only a JSON array of ingredient names, no other text.
For example: ["eggs", "milk", "tomatoes", "chicken breast"]
`

	c.logger.Info("Extracting ingredients from photo")
	c.logger.Debug("Photo URL (truncated): %s", truncateString(photoURL, 50))

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: prompt,
				},
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: "What food ingredients do you see in this image? List them in a JSON array.",
						},
						{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: photoURL},
						},
					},
				},
			},
			Temperature: 0.2,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI API")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))

	var ingredients []string
	if err := json.Unmarshal([]byte(content), &ingredients); err != nil {
		// The model sometimes answers with a plain list
		if listed := ingredientsFromList(content); len(listed) > 0 {
			c.logger.Info("Read %d ingredients from a plain-text answer", len(listed))
			return listed, nil
		}
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	c.logger.Info("Extracted %d ingredients from photo", len(ingredients))
	return ingredients, nil
}

// GenerateChatMessage generates a chat message for a specific intent
func (c *Client) GenerateChatMessage(ctx context.Context, intent string, contextData map[string]interface{}) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// Convert context to JSON string
	contextJSON, err := json.Marshal(contextData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a friendly cooking assistant bot that keeps a cook on schedule. Generate a short, engaging message for the following intent: "%s".
Use the context provided below to personalize the message. Keep it concise and mobile-friendly.
Add appropriate emojis for fun and readability.

Context:
%s

Return only the message text, no explanations or other text.
`, intent, string(contextJSON))

	c.logger.Info("Generating chat message for intent: %s", intent)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.7,
		},
	)

	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI API")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Helper functions

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// cleanJSONResponse strips the ```json fences the model sometimes wraps around JSON
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// The first line may be "```json"
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	return s
}

// ingredientsFromList reads one ingredient per line, dropping bullets and numbering
func ingredientsFromList(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.Trim(line, `"',`)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		out = append(out, line)
	}
	return out
}
