package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/preachertools/sermonforge/app/models"
	"github.com/preachertools/sermonforge/app/repository"
	"github.com/preachertools/sermonforge/internal/pkg/entitlements"
	"github.com/preachertools/sermonforge/internal/pkg/sermon"
	"github.com/preachertools/sermonforge/internal/pkg/session"
	"github.com/preachertools/sermonforge/internal/pkg/usercontext"
)

var generator sermon.Generator

func getGenerator() sermon.Generator {
	if generator == nil {
		generator = sermon.NewOpenAIClientFromEnv()
	}
	return generator
}

// SetGenerator overrides the generation backend, used by tests.
func SetGenerator(g sermon.Generator) {
	generator = g
}

type nextStepRequest struct {
	Step         int    `json:"step" form:"step"`
	UserResponse string `json:"userResponse" form:"userResponse"`
}

// wizardState is the partial sermon request accumulated across steps,
// serialized into the session between round trips.
type wizardState struct {
	Topic    string `json:"topic,omitempty"`
	Audience string `json:"audience,omitempty"`
	Type     string `json:"type,omitempty"`
	Duration string `json:"duration,omitempty"`
}

var (
	audienceOptions = []string{"A) Crianças", "B) Adolescentes", "C) Jovens", "D) Mulheres", "E) Homens", "F) Público misto", "G) Não convertido"}
	typeOptions     = []string{"A) Expositivo", "B) Textual", "C) Temático"}
	durationOptions = []string{
		"Entre 1 e 10 min", "Entre 10 e 20 min", "Entre 20 e 30 min",
		"Entre 30 e 40 min", "Entre 40 e 50 min", "Entre 50 e 60 min",
		"Acima de 1 hora",
	}
)

// HandleNextStep drives the four-step sermon wizard. Steps 1 to 3 collect
// the answers into the session; step 4 authorizes against live entitlement
// state and runs the generation.
func HandleNextStep(c *fiber.Ctx) error {
	var req nextStepRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid payload"})
	}

	if req.Step <= 0 {
		saveWizardState(c, wizardState{})
		return c.JSON(fiber.Map{
			"step":     1,
			"question": "Qual é o tema do seu sermão?",
		})
	}

	answer := strings.TrimSpace(req.UserResponse)
	if answer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "userResponse is required"})
	}

	state := loadWizardState(c)

	switch req.Step {
	case 1:
		state.Topic = answer
		saveWizardState(c, state)
		return c.JSON(fiber.Map{"step": 2, "question": "Para qual público você vai pregar?", "options": audienceOptions})
	case 2:
		state.Audience = answer
		saveWizardState(c, state)
		return c.JSON(fiber.Map{"step": 3, "question": "Qual tipo de sermão você vai pregar?", "options": typeOptions})
	case 3:
		state.Type = answer
		saveWizardState(c, state)
		return c.JSON(fiber.Map{"step": 4, "question": "Quantos minutos o sermão deve durar?", "options": durationOptions})
	case 4:
		state.Duration = answer
		return finishWizard(c, state)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "unknown step"})
	}
}

// finishWizard is the billable step. It re-resolves access against the
// entitlement store, consumes a grace unit when that is what granted access,
// and only then calls the provider. A consumed unit is refunded when the
// generation times out, so a retry is free.
func finishWizard(c *fiber.Ctx, state wizardState) error {
	email := usercontext.GetEmail(c)
	cfg := entitlementConfig()
	now := time.Now()

	decision, _, err := resolveAccess(email, now)
	if err != nil {
		log.Printf("access re-resolution failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	if !decision.Granted {
		return c.Status(fiber.StatusForbidden).JSON(decision)
	}

	graceMonth := ""
	if decision.Status == entitlements.StatusGracePeriod {
		graceMonth = entitlements.CurrentMonth(now, cfg.Location)
		ok, err := repository.GetGlobalFactory().GetCustomerRepository().ConsumeGrace(email, graceMonth, cfg.GraceLimit)
		if err != nil {
			log.Printf("grace consumption failed for %s: %v", email, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
		}
		if !ok {
			// Lost the race for the last unit, or the quota was already gone.
			return c.Status(fiber.StatusForbidden).JSON(entitlements.Decision{
				Granted:    false,
				Reason:     entitlements.ReasonSubscriptionExpired,
				RenewalURL: cfg.RenewalURL,
			})
		}
	}

	requestID := uuid.NewString()
	promptCfg := sermon.LookupPromptConfig(state.Type, state.Duration)
	prompt := sermon.BuildPrompt(state.Topic, state.Audience, state.Type, promptCfg)

	gen := getGenerator()
	text, err := gen.Generate(c.UserContext(), prompt, promptCfg)
	if err != nil {
		if graceMonth != "" {
			if refundErr := repository.GetGlobalFactory().GetCustomerRepository().RefundGrace(email, graceMonth); refundErr != nil {
				log.Printf("grace refund failed for %s: %v", email, refundErr)
			}
		}
		if errors.Is(err, sermon.ErrTimeout) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "timeout", "retryable": true})
		}
		log.Printf("generation failed for %s: %v", email, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "generation_failed"})
	}

	log.Printf("generation %s completed for %s", requestID, email)

	modelUsed := ""
	if oc, ok := gen.(*sermon.OpenAIClient); ok {
		modelUsed = oc.Model()
	}
	if err := repository.GetGlobalFactory().GetActivityLogRepository().Create(activityEntry(email, modelUsed, state, promptCfg)); err != nil {
		// The sermon was produced; losing one log row must not fail the user.
		log.Printf("activity log write failed for %s: %v", email, err)
	}

	if err := session.DeleteSessionValue(c, session.KeySermonData); err != nil {
		log.Printf("wizard state cleanup failed: %v", err)
	}

	return c.JSON(fiber.Map{
		"step":       "done",
		"request_id": requestID,
		"sermon":     text,
	})
}

// activityEntry builds the audit row for one completed generation. The row
// records the structural instruction only, never the full prompt with the
// user's topic interpolated.
func activityEntry(email, modelUsed string, state wizardState, promptCfg sermon.PromptConfig) *models.ActivityLog {
	return &models.ActivityLog{
		UserEmail:         email,
		SermonTopic:       state.Topic,
		SermonAudience:    sermon.CleanOption(state.Audience),
		SermonType:        sermon.CleanOption(state.Type),
		SermonDuration:    state.Duration,
		ModelUsed:         modelUsed,
		PromptInstruction: promptCfg.Structure,
	}
}

func loadWizardState(c *fiber.Ctx) wizardState {
	var state wizardState
	raw := session.GetSessionValue(c, session.KeySermonData)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			state = wizardState{}
		}
	}
	return state
}

func saveWizardState(c *fiber.Ctx, state wizardState) {
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := session.SetSessionValue(c, session.KeySermonData, string(raw)); err != nil {
		log.Printf("wizard state save failed: %v", err)
	}
}
