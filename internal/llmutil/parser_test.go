package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCodeOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain text is trimmed",
			content: "  click \"#go\"\n",
			want:    `click "#go"`,
		},
		{
			name:    "fence with language tag",
			content: "```dsl\nwait 2\nclick \"#login\"\n```",
			want:    "wait 2\nclick \"#login\"",
		},
		{
			name:    "fence surrounded by prose",
			content: "Here is the script:\n```\nwait 1\n```\nGood luck!",
			want:    "wait 1",
		},
		{
			name:    "unterminated fence is left alone",
			content: "```\nwait 1",
			want:    "```\nwait 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCodeOutput(tt.content))
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab...", TruncateString("abcdef", 2))
	assert.Equal(t, "", TruncateString("abc", 0))
}
