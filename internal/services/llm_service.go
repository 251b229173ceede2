package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/models"
)

// maxExtractionInput bounds how much of a posting is sent to the model.
const maxExtractionInput = 20000

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "title": "Job title (e.g., Senior Backend Engineer)",
    "location": "Job location or 'Remote'",
    "employment_type": "One of FT, PT, CT, IN, TP",
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements. Remove HTML tags.",
    "tech_stack": ["Array", "of", "technologies", "mentioned"]
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// Generator turns a prompt into model output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type modelGenerator struct {
	model llms.Model
}

func (g modelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
}

// NewGeminiGenerator returns nil, nil when apiKey is empty so that callers
// can run with extraction disabled.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	if apiKey == "" {
		return nil, nil
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return modelGenerator{model: llm}, nil
}

// JobDraft is the model's reading of a posting, ready to be reviewed and
// submitted as a job.
type JobDraft struct {
	Title          *string  `json:"title"`
	Location       *string  `json:"location"`
	EmploymentType *string  `json:"employment_type"`
	Description    *string  `json:"description"`
	TechStack      []string `json:"tech_stack"`
	CategoryID     *uint    `json:"category_id,omitempty"`
}

type LLMService struct {
	Generator Generator
	Matcher   *MatcherService
	Log       logrus.FieldLogger
}

func NewLLMService(gen Generator, matcher *MatcherService, log logrus.FieldLogger) *LLMService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LLMService{Generator: gen, Matcher: matcher, Log: log}
}

// Enabled reports whether a model is configured.
func (s *LLMService) Enabled() bool {
	return s != nil && s.Generator != nil
}

// ExtractJobDetails asks the model for a JobDraft of rawHTML. Only admins
// may call it since the result feeds job creation.
func (s *LLMService) ExtractJobDetails(ctx context.Context, p authz.Principal, rawHTML string) (*JobDraft, error) {
	if err := authz.Authorize(p, authz.ResourceJob, authz.ActionCreate, nil); err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, apperr.Internal("job extraction is not configured", nil)
	}
	if strings.TrimSpace(rawHTML) == "" {
		return nil, validationField("raw_html", "raw_html may not be blank")
	}
	if len(rawHTML) > maxExtractionInput {
		rawHTML = rawHTML[:maxExtractionInput]
	}

	resp, err := s.Generator.Generate(ctx, fmt.Sprintf(jobExtractionPrompt, rawHTML))
	if err != nil {
		return nil, apperr.Internal("job extraction failed", err)
	}
	var draft JobDraft
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &draft); err != nil {
		s.Log.WithError(err).WithField("response_bytes", len(resp)).Warn("model returned malformed job draft")
		return nil, apperr.Internal("job extraction returned malformed output", err)
	}
	if draft.EmploymentType != nil && !models.EmploymentType(strings.ToUpper(*draft.EmploymentType)).Valid() {
		draft.EmploymentType = nil
	}
	if s.Matcher != nil {
		category, err := s.Matcher.MatchCategory(ctx, &draft)
		if err != nil {
			return nil, err
		}
		if category != nil {
			draft.CategoryID = &category.ID
		}
	}
	return &draft, nil
}

// stripCodeFence removes a ```json ... ``` wrapper models add despite
// being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
