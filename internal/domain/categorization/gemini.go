package categorization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Oracle suggests categories for descriptions the rule engine has never
// seen. Implementations are consulted best-effort: any error or timeout
// falls back to the rule-based result.
type Oracle interface {
	SuggestCategories(ctx context.Context, descriptions []string) (map[string]Category, error)
}

// GeminiOracle asks Gemini for category suggestions.
type GeminiOracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeminiOracle creates the oracle. model defaults to gemini-2.0-flash and
// timeout to 10s when zero.
func NewGeminiOracle(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiOracle{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// SuggestCategories sends the deduplicated descriptions to the model and
// returns its per-description category picks. Suggestions outside the
// closed category set are discarded.
func (o *GeminiOracle) SuggestCategories(ctx context.Context, descriptions []string) (map[string]Category, error) {
	unique := dedupe(descriptions)
	if len(unique) == 0 {
		return map[string]Category{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt, err := buildOraclePrompt(unique)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var picks map[string]string
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &picks); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	result := make(map[string]Category, len(picks))
	for desc, cat := range picks {
		category := Category(cat)
		if !category.Valid() {
			o.logger.Warn("oracle suggested unknown category",
				slog.String("description", desc),
				slog.String("category", cat))
			continue
		}
		result[desc] = category
	}
	return result, nil
}

func buildOraclePrompt(descriptions []string) (string, error) {
	cats := make([]string, 0, len(Categories()))
	for _, c := range Categories() {
		cats = append(cats, string(c))
	}

	payload, err := json.Marshal(descriptions)
	if err != nil {
		return "", fmt.Errorf("failed to encode descriptions: %w", err)
	}

	var b strings.Builder
	b.WriteString("You categorize Brazilian bank statement descriptions.\n\n")
	b.WriteString("Allowed categories: " + strings.Join(cats, ", ") + "\n\n")
	b.WriteString("For each description in the JSON array below, pick exactly one allowed category.\n")
	b.WriteString("Output STRICT JSON only: a single object mapping each description to its category.\n")
	b.WriteString("Do NOT wrap the response in code fences. Output must begin with \"{\" and end with \"}\".\n\n")
	b.Write(payload)
	return b.String(), nil
}

// cleanModelJSON strips code fences and surrounding junk the model sometimes
// emits despite the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
