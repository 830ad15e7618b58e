package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/avelasco/trainsight/internal/garmin"
)

// fakeModel records the last request and returns a canned reply.
type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	calls    int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return f.reply, f.err
}

func sampleBundle() *Bundle {
	hr := 148
	power := 210.0
	weight := 72500.0
	score := 82
	return &Bundle{
		Profile: &garmin.UserProfile{FullName: "Ada Lovelace"},
		Activities: []garmin.Activity{
			{ID: 1, Name: "Tempo Run", Type: garmin.ActivityType{TypeKey: "running"},
				StartTimeLocal: "2025-01-29 07:15:00", DistanceMeters: 12000,
				DurationSeconds: 3600, AverageHR: &hr},
		},
		Details: map[int64]*garmin.ActivityDetail{
			1: {ActivityID: 1, AveragePower: &power},
		},
		Body: []garmin.BodyComposition{
			{CalendarDate: "2025-01-29", Weight: &weight},
		},
		Sleep: []garmin.SleepSummary{
			{CalendarDate: "2025-01-29", SleepTimeSeconds: 27000,
				DeepSleepSeconds: 5400, RemSleepSeconds: 7200, SleepScore: &score},
		},
	}
}

func TestPromptsValid(t *testing.T) {
	require.NoError(t, ValidatePrompts())

	system, err := SystemPrompt()
	require.NoError(t, err)
	assert.Contains(t, system, "RECOMMENDATIONS")
}

func TestAnalyzeSendsFormattedData(t *testing.T) {
	fake := &fakeModel{reply: "Solid week of training."}
	a, err := NewAnalyzerWithModel(fake, Options{Provider: "anthropic", MaxTokens: 1000}, nil)
	require.NoError(t, err)

	out, err := a.Analyze(context.Background(), sampleBundle())
	require.NoError(t, err)
	assert.Equal(t, "Solid week of training.", out)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, fake.messages[1].Role)

	data := fake.messages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, data, "training data for Ada Lovelace")
	assert.Contains(t, data, "Tempo Run")
	assert.Contains(t, data, "Distance: 12.00 km")
	assert.Contains(t, data, "Avg power: 210 W")
	assert.Contains(t, data, "Weight: 72.5 kg", "grams normalized to kg")
	assert.Contains(t, data, "SLEEP:")
	assert.Contains(t, data, "2025-01-29: 7.5 h total, 1.5 h deep, 2.0 h REM, score 82")
}

func TestAnalyzeEmptyBundleSkipsModel(t *testing.T) {
	fake := &fakeModel{reply: "unused"}
	a, err := NewAnalyzerWithModel(fake, Options{Provider: "anthropic"}, nil)
	require.NoError(t, err)

	out, err := a.Analyze(context.Background(), &Bundle{})
	require.NoError(t, err)
	assert.Contains(t, out, "No activities")
	assert.Zero(t, fake.calls)
}

func TestAnalyzeModelErrorWrapped(t *testing.T) {
	fake := &fakeModel{err: assert.AnError}
	a, err := NewAnalyzerWithModel(fake, Options{Provider: "openai"}, nil)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), sampleBundle())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestUnsupportedProvider(t *testing.T) {
	_, err := newModel(context.Background(), Options{Provider: "cohere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestAnalyzeMissingDataPrompt(t *testing.T) {
	fake := &fakeModel{reply: "ok"}
	a, err := NewAnalyzerWithModel(fake, Options{Provider: "anthropic"}, nil)
	require.NoError(t, err)

	b := &Bundle{
		Activities: []garmin.Activity{
			{ID: 9, Name: "Swim", Type: garmin.ActivityType{TypeKey: "swimming"},
				StartTimeLocal: "2025-01-20 06:00:00"},
		},
	}
	_, err = a.Analyze(context.Background(), b)
	require.NoError(t, err)

	data := fake.messages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, data, "training data for Athlete")
	assert.Contains(t, data, "No measurements available")
	assert.Contains(t, data, "No sleep data available")
	assert.Contains(t, data, "No structured training plan provided")
	assert.NotContains(t, data, "Avg HR")
}

func TestAnalyzeTrainingPlanPrompt(t *testing.T) {
	fake := &fakeModel{reply: "ok"}
	a, err := NewAnalyzerWithModel(fake, Options{Provider: "anthropic"}, nil)
	require.NoError(t, err)

	b := sampleBundle()
	b.TrainingPlan = "Week 1: base endurance"

	_, err = a.Analyze(context.Background(), b)
	require.NoError(t, err)

	data := fake.messages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, data, "TRAINING PLAN:\nWeek 1: base endurance")
}
