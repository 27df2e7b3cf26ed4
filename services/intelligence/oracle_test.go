package ai

import (
	"testing"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type answer struct {
		Question string `json:"question"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "plain", raw: `{"question":"How many guests?"}`, want: "How many guests?"},
		{name: "fenced", raw: "```json\n{\"question\":\"What time?\"}\n```", want: "What time?"},
		{name: "bare fence", raw: "```\n{\"question\":\"Which day?\"}\n```", want: "Which day?"},
		{name: "empty", raw: "   ", wantErr: ErrNullResult},
		{name: "null", raw: "null", wantErr: ErrNullResult},
		{name: "broken", raw: `{"question":`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got answer
			err := DecodeJSON(tt.raw, &got)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsFailure(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Question)
		})
	}
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(AnalysisSchema)

	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"intents", "ambiguous", "confidence"}, s.Required)

	intents := s.Properties["intents"]
	require.NotNil(t, intents)
	assert.Equal(t, genai.TypeArray, intents.Type)
	require.NotNil(t, intents.Items)

	label := intents.Items.Properties["intent"]
	assert.Equal(t, genai.TypeString, label.Type)
	assert.Equal(t, "enum", label.Format)
	assert.Contains(t, label.Enum, "book_service")

	assert.True(t, s.Properties["clarificationQuestion"].Nullable)
}
