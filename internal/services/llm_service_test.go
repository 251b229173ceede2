package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestExtractJobDetails(t *testing.T) {
	db := testutil.NewDB(t)
	software := testutil.CreateCategory(t, db, "Software")
	testutil.CreateCategory(t, db, "Go")
	gen := &fakeGenerator{response: "```json\n" + `{
		"title": "Senior Software Engineer",
		"location": "Remote",
		"employment_type": "FT",
		"description": "Build services.",
		"tech_stack": ["Go", "Postgres"]
	}` + "\n```"}
	svc := NewLLMService(gen, NewMatcherService(db), nil)

	draft, err := svc.ExtractJobDetails(context.Background(), authz.Admin(1), "<html>posting</html>")
	require.NoError(t, err)

	require.NotNil(t, draft.Title)
	assert.Equal(t, "Senior Software Engineer", *draft.Title)
	assert.Equal(t, []string{"Go", "Postgres"}, draft.TechStack)
	require.NotNil(t, draft.CategoryID)
	assert.Equal(t, software.ID, *draft.CategoryID)
	assert.Contains(t, gen.prompt, "<html>posting</html>")
}

func TestExtractJobDetailsTruncatesInput(t *testing.T) {
	gen := &fakeGenerator{response: `{"title": null}`}
	svc := NewLLMService(gen, nil, nil)
	raw := strings.Repeat("a", maxExtractionInput) + "TAIL"

	_, err := svc.ExtractJobDetails(context.Background(), authz.Admin(1), raw)
	require.NoError(t, err)

	assert.NotContains(t, gen.prompt, "TAIL")
}

func TestExtractJobDetailsDropsUnknownEmploymentType(t *testing.T) {
	svc := NewLLMService(&fakeGenerator{response: `{"employment_type": "Full-time"}`}, nil, nil)

	draft, err := svc.ExtractJobDetails(context.Background(), authz.Admin(1), "posting")
	require.NoError(t, err)
	assert.Nil(t, draft.EmploymentType)
}

func TestExtractJobDetailsErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewLLMService(&fakeGenerator{}, nil, nil).ExtractJobDetails(ctx, authz.Candidate(2), "posting")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = NewLLMService(nil, nil, nil).ExtractJobDetails(ctx, authz.Admin(1), "posting")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	_, err = NewLLMService(&fakeGenerator{}, nil, nil).ExtractJobDetails(ctx, authz.Admin(1), "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = NewLLMService(&fakeGenerator{err: errors.New("quota")}, nil, nil).ExtractJobDetails(ctx, authz.Admin(1), "posting")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	_, err = NewLLMService(&fakeGenerator{response: "not json"}, nil, nil).ExtractJobDetails(ctx, authz.Admin(1), "posting")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}
