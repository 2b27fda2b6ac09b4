package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preachertools/sermonforge/internal/pkg/sermon"
)

type nextStepResponse struct {
	Step     int      `json:"step"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func postNextStep(t *testing.T, app *fiber.App, body string) nextStepResponse {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/next-step", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed nextStepResponse
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return parsed
}

func TestNextStepAudienceOptions(t *testing.T) {
	app := fiber.New()
	app.Post("/api/next-step", HandleNextStep)

	resp := postNextStep(t, app, `{"step":1,"userResponse":"O filho pródigo"}`)
	assert.Equal(t, 2, resp.Step)
	assert.Equal(t, "Para qual público você vai pregar?", resp.Question)
	assert.Equal(t, []string{
		"A) Crianças", "B) Adolescentes", "C) Jovens",
		"D) Mulheres", "E) Homens", "F) Público misto", "G) Não convertido",
	}, resp.Options)
}

func TestNextStepTypeAndDurationQuestions(t *testing.T) {
	app := fiber.New()
	app.Post("/api/next-step", HandleNextStep)

	resp := postNextStep(t, app, `{"step":2,"userResponse":"D) Mulheres"}`)
	assert.Equal(t, "Qual tipo de sermão você vai pregar?", resp.Question)
	assert.Contains(t, resp.Options, "A) Expositivo")

	resp = postNextStep(t, app, `{"step":3,"userResponse":"A) Expositivo"}`)
	assert.Equal(t, "Quantos minutos o sermão deve durar?", resp.Question)
	assert.Contains(t, resp.Options, "Entre 20 e 30 min")
}

// The audit row stores the structural instruction, not the assembled prompt
// carrying the user's topic.
func TestActivityEntryRecordsStructureOnly(t *testing.T) {
	state := wizardState{
		Topic:    "O filho pródigo",
		Audience: "D) Mulheres",
		Type:     "A) Expositivo",
		Duration: "Entre 20 e 30 min",
	}
	cfg := sermon.LookupPromptConfig(state.Type, state.Duration)

	entry := activityEntry("a@b.com", "gpt-4o-mini", state, cfg)
	assert.Equal(t, cfg.Structure, entry.PromptInstruction)
	assert.NotContains(t, entry.PromptInstruction, state.Topic)
	assert.Equal(t, "Mulheres", entry.SermonAudience)
	assert.Equal(t, "Expositivo", entry.SermonType)
	assert.Equal(t, "Entre 20 e 30 min", entry.SermonDuration)
}
