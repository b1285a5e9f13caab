package service_test

import (
	"testing"

	"github.com/brightfund/email-backend/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	out := service.RenderTemplate("Hi {{name}}, tier {{tier}}, again {{name}}", map[string]string{
		"name": "Dana",
		"tier": "gold",
	})
	if out != "Hi Dana, tier gold, again Dana" {
		t.Errorf("unexpected render: %q", out)
	}
}

func TestRenderTemplateLeavesUnknownTokens(t *testing.T) {
	out := service.RenderTemplate("Hello {{name}} {{mystery}}", map[string]string{"name": "Dana"})
	if out != "Hello Dana {{mystery}}" {
		t.Errorf("unknown tokens must stay literal, got %q", out)
	}
}
