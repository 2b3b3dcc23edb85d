package llmclient

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/dsl"
)

const dslSystemPrompt = `You write form-filling scripts in a small line-oriented DSL.
Each line is one command:
  click "<selector>"
  hover "<selector>"
  type "<selector>" "<text>"
  upload "<selector>" "<file path>"
  wait <seconds>

Rules:
1. Use CSS selectors (#id, .class, [attribute]).
2. Log in first if the page requires it.
3. Fill every required field.
4. Click the submit/apply button last.
5. Return ONLY DSL commands, without comments or explanations.`

// DSLPrompt builds the generation request asking a model for a script that
// fills the form in html with the values in profile.
func DSLPrompt(html string, profile schemas.UserProfile) schemas.GenerationRequest {
	userData, err := profile.MarshalJSON()
	if err != nil {
		userData = []byte("{}")
	}

	verbs := make([]string, len(dsl.Verbs))
	for i, v := range dsl.Verbs {
		verbs[i] = string(v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available commands: %s\n\n", strings.Join(verbs, ", "))
	fmt.Fprintf(&b, "HTML:\n%s\n\n", html)
	fmt.Fprintf(&b, "User data:\n%s\n\n", userData)
	b.WriteString("Generate the optimal sequence of DSL commands:")

	return schemas.GenerationRequest{
		SystemPrompt: dslSystemPrompt,
		UserPrompt:   b.String(),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature: 0.1,
			MaxTokens:   1000,
		},
	}
}
