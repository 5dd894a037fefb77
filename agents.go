package careerforge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/stores"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	ErrNoProviders        = errors.New("no AI providers configured")
	ErrAllProvidersFailed = errors.New("all AI providers failed")
	errEmptyReply         = errors.New("provider returned an empty reply")
)

// Model is a single AI provider.
type Model interface {
	Name() string
	Generate(ctx context.Context, request models.GenerateRequest) (string, error)
}

// AttemptRecorder persists provider attempts. stores.GORMAttemptStore
// satisfies it.
type AttemptRecorder interface {
	SaveAttempt(ctx context.Context, attempt *stores.ProviderAttempt) error
}

// Assistant answers chat turns by asking its providers in order until one of
// them replies.
type Assistant struct {
	Models   []Model
	Recorder AttemptRecorder
	Timeout  time.Duration
	Logger   *zap.Logger

	now func() time.Time
}

// NewAssistant creates an assistant that tries providers in the given order
func NewAssistant(logger *zap.Logger, recorder AttemptRecorder, timeout time.Duration, providers ...Model) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		Models:   providers,
		Recorder: recorder,
		Timeout:  timeout,
		Logger:   logger.Named("assistant"),
		now:      time.Now,
	}
}

// ChatWithAI answers message given the conversation so far. history is the
// sanitized conversation and may end with the user turn being answered; that
// turn is replaced by message, which can carry extra context such as document
// text.
func (a *Assistant) ChatWithAI(ctx context.Context, message string, history []models.Message, uc models.UserContext) (models.AIReply, error) {
	if len(a.Models) == 0 {
		return models.AIReply{}, ErrNoProviders
	}

	turns := history
	if n := len(turns); n > 0 && turns[n-1].Role == models.RoleUser {
		turns = turns[:n-1]
	}
	request := models.GenerateRequest{
		SystemPrompt: SystemPrompt(uc),
		History:      turns,
		Message:      message,
	}

	logger := a.logger().With(zap.String("session_id", uc.SessionID), zap.String("user_id", uc.UserID))
	var causes []error
	for _, model := range a.Models {
		if err := ctx.Err(); err != nil {
			causes = append(causes, err)
			break
		}

		start := a.clock()
		reply, err := a.generate(ctx, model, request)
		elapsed := a.clock().Sub(start)
		a.record(ctx, logger, model, uc, request, reply, err, elapsed)

		if err != nil {
			logger.Warn("provider failed, falling back",
				zap.String("provider", model.Name()),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			causes = append(causes, fmt.Errorf("%s: %w", model.Name(), err))
			continue
		}

		logger.Debug("provider answered",
			zap.String("provider", model.Name()),
			zap.Duration("elapsed", elapsed))
		return models.AIReply{Response: reply, Provider: model.Name(), Model: modelID(model)}, nil
	}

	return models.AIReply{}, errors.Join(append([]error{ErrAllProvidersFailed}, causes...)...)
}

func (a *Assistant) generate(ctx context.Context, model Model, request models.GenerateRequest) (string, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	reply, err := model.Generate(ctx, request)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errEmptyReply
	}
	return reply, nil
}

func (a *Assistant) record(ctx context.Context, logger *zap.Logger, model Model, uc models.UserContext,
	request models.GenerateRequest, reply string, cause error, elapsed time.Duration) {
	if a.Recorder == nil {
		return
	}

	attempt := &stores.ProviderAttempt{
		SessionID:  uc.SessionID,
		UserID:     uc.UserID,
		Provider:   model.Name(),
		Model:      modelID(model),
		Status:     stores.AttemptSucceeded,
		DurationMS: elapsed.Milliseconds(),
		Details: datatypes.JSONMap{
			"task_type":     string(uc.TaskType),
			"history_turns": len(request.History),
			"reply_chars":   len(reply),
		},
	}
	if cause != nil {
		attempt.Status = stores.AttemptFailed
		attempt.Error = cause.Error()
	}

	// the attempt log must not outlive a cancelled request's context
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.Recorder.SaveAttempt(saveCtx, attempt); err != nil {
		logger.Warn("failed to record provider attempt", zap.String("provider", model.Name()), zap.Error(err))
	}
}

func (a *Assistant) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Assistant) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

// modelID returns the concrete model name of providers that expose one
func modelID(model Model) string {
	if m, ok := model.(interface{ ModelID() string }); ok {
		return m.ModelID()
	}
	return ""
}
