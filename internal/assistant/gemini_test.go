package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

func TestReplyTextJoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "An offering "}, {Text: "is a priced product."}}},
		}},
	}
	got, err := replyText(resp)
	require.NoError(t, err)
	assert.Equal(t, "An offering is a priced product.", got)
}

func TestReplyTextEmpty(t *testing.T) {
	for _, resp := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
	} {
		_, err := replyText(resp)
		assert.True(t, errors.Is(err, ErrEmptyReply))
	}
}
