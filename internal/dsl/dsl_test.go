package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_String(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"click", Click("#submit"), `click "#submit"`},
		{"hover", Hover(".menu"), `hover ".menu"`},
		{"type", Type("#username", "john.doe"), `type "#username" "john.doe"`},
		{"type escapes value", Type("#bio", `say "hi" \o/`), `type "#bio" "say \"hi\" \\o/"`},
		{"upload", Upload(`[type="file"]`, "/home/me/cv.pdf"), `upload "[type="file"]" "/home/me/cv.pdf"`},
		{"wait integer", Wait(2), "wait 2"},
		{"wait fractional", Wait(0.5), "wait 0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestScript_String(t *testing.T) {
	s := Script{Wait(1), Type("#email", "a@b.c"), Click("#go")}
	assert.Equal(t, "wait 1\ntype \"#email\" \"a@b.c\"\nclick \"#go\"", s.String())
	assert.Equal(t, "", Script(nil).String())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `test \"quoted\" text`, Escape(`test "quoted" text`))
	assert.Equal(t, "normal text", Escape("normal text"))
	assert.Equal(t, `C:\\cv.pdf`, Escape(`C:\cv.pdf`))
}

func TestIsCacheable(t *testing.T) {
	assert.False(t, IsCacheable(""))
	assert.False(t, IsCacheable("hi"))
	assert.False(t, IsCacheable("wait1"), "exactly five characters is not enough")
	assert.False(t, IsCacheable("   hi   \n\n"), "whitespace does not count")
	assert.True(t, IsCacheable("wait 1"))
	assert.True(t, IsCacheable(`click "#submit"`))
}

func TestFilterResponse(t *testing.T) {
	response := `
        Here's the DSL script for your form:

        click "#login-btn"
        type "#username" "testuser"
        type "#password" "testpass"
        // This is a comment
        # also a comment
        click "#submit"
        typescript is not a command

        This should work for your form.
        `

	got := FilterResponse(response)

	assert.Equal(t, "click \"#login-btn\"\ntype \"#username\" \"testuser\"\ntype \"#password\" \"testpass\"\nclick \"#submit\"", got)
	assert.Empty(t, FilterResponse("I could not find a form on this page."))
}

func TestCheck(t *testing.T) {
	t.Run("should accept a well formed script", func(t *testing.T) {
		script := "click \"#button\"\n" +
			"type \"#input\" \"some text\"\n" +
			"\n" +
			"// comment lines are ignored\n" +
			"upload \"#file\" \"path/to/file.pdf\"\n" +
			"hover \".menu\"\n" +
			"wait 1.5"
		assert.NoError(t, Check(script))
	})

	invalid := []struct {
		name   string
		script string
		line   int
		reason string
	}{
		{"unknown verb", `invalid_command "#test"`, 1, "invalid command"},
		{"click without selector", "wait 1\nclick", 2, "requires exactly one argument"},
		{"click with two arguments", `click "#a" "#b"`, 1, "requires exactly one argument"},
		{"type without value", `type "#a"`, 1, "requires at least two arguments"},
		{"non numeric wait", "wait soon", 1, "wait time must be a number"},
		{"wait without argument", "wait", 1, "requires exactly one argument"},
	}
	for _, tt := range invalid {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			err := Check(tt.script)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.line, syntaxErr.Line)
			assert.Contains(t, syntaxErr.Reason, tt.reason)
		})
	}
}

func TestRenderedScriptsPassCheck(t *testing.T) {
	s := Script{Wait(2), Type("#name", "Jan Kowalski"), Upload("#cv", "/tmp/cv.pdf"), Hover("#menu"), Click("#submit")}
	assert.NoError(t, Check(s.String()))
}
