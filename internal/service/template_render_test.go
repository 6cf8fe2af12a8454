package service

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRenderPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "missing_token_blanked",
			template: "Ciao {{customerName}}, ordine #{{orderNumber}}",
			vars:     map[string]string{"customerName": "Mario"},
			want:     "Ciao Mario, ordine #",
		},
		{
			name:     "whitespace_inside_braces",
			template: "{{ siteName }} / {{siteUrl}}",
			vars:     map[string]string{"siteName": "Bottega", "siteUrl": "https://shop.example.com"},
			want:     "Bottega / https://shop.example.com",
		},
		{
			name:     "repeated_token",
			template: "{{orderNumber}}-{{orderNumber}}",
			vars:     map[string]string{"orderNumber": "OF1"},
			want:     "OF1-OF1",
		},
		{
			name:     "nil_variables",
			template: "Hi {{customerName}}!",
			vars:     nil,
			want:     "Hi !",
		},
		{
			name:     "no_placeholders",
			template: "plain text",
			vars:     map[string]string{"x": "y"},
			want:     "plain text",
		},
		{
			name:     "unclosed_braces_left_as_is",
			template: "Hi {{customerName",
			vars:     map[string]string{"customerName": "Mario"},
			want:     "Hi {{customerName",
		},
		{
			name:     "punctuated_unknown_tokens_blanked",
			template: "Ciao {{customer-name}}, ordine #{{ order.number }}.",
			vars:     map[string]string{"customerName": "Mario"},
			want:     "Ciao , ordine #.",
		},
		{
			name:     "empty_braces_left_as_is",
			template: "{{}} {{ }}",
			vars:     nil,
			want:     "{{}} {{ }}",
		},
		{
			name:     "value_not_re_rendered",
			template: "{{customerName}}",
			vars:     map[string]string{"customerName": "{{siteName}}", "siteName": "Bottega"},
			want:     "{{siteName}}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderPlaceholders(tt.template, tt.vars); got != tt.want {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}

func TestRenderPlaceholdersNeverLeavesKnownTokens(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("well-formed tokens are always consumed", prop.ForAll(
		func(prefix, token, suffix string, provide bool) bool {
			template := prefix + "{{" + token + "}}" + suffix
			vars := map[string]string{}
			if provide {
				vars[token] = "v"
			}
			rendered := RenderPlaceholders(template, vars)
			return !strings.Contains(rendered, "{{"+token+"}}")
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
