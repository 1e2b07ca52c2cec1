package chat

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"botrelay/internal/ai"
	dbpkg "botrelay/internal/db"
)

// Caller-facing messages.
const (
	MsgMissingQuery     = "Missing required query parameters: secretKey and website are required"
	MsgBotNotFound      = "No active bot found with the provided credentials"
	MsgLookupFailed     = "Failed to fetch bot details"
	MsgMissingFields    = "Missing required fields: secretKey, website, and message are required"
	MsgInvalidSecret    = "Invalid secret key or bot is inactive"
	MsgWebsiteMismatch  = "This bot is not configured for the specified website"
	MsgAIUnavailable    = "The AI service is currently unavailable. Please try again later."
	MsgAIAuthFailed     = "Authentication failed. Please check your API key and try again."
	MsgAIGenericFailure = "Sorry, I encountered an error while processing your request. Please try again later."
	MsgMessageFailed    = "Failed to process message"
)

// Outcomes recorded for responses that are not hard errors.
const (
	OutcomeOK              = "ok"
	OutcomeWebsiteMismatch = "website_mismatch"
	OutcomeAIError         = "ai_error"
)

// TimestampLayout renders response timestamps as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// BotFinder is the read side of the bot store.
type BotFinder interface {
	FindPublic(ctx context.Context, secretKey, website string) (*dbpkg.Bot, error)
	FindActiveBySecret(ctx context.Context, secretKey string) (*dbpkg.Bot, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	// Instruction is appended to the knowledge base in every prompt.
	Instruction string
	// Timeout bounds each AI call. Zero means no timeout.
	Timeout time.Duration

	Now    func() time.Time
	Logger logrus.FieldLogger
}

// Service answers the public bot lookup and chat requests.
type Service struct {
	bots        BotFinder
	gen         Generator
	instruction string
	timeout     time.Duration
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewService(bots BotFinder, gen Generator, opts Options) *Service {
	s := &Service{
		bots:        bots,
		gen:         gen,
		instruction: opts.Instruction,
		timeout:     opts.Timeout,
		now:         opts.Now,
		log:         opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Response is the JSON body for successful and soft-rejected requests.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	BotID   uint   `json:"-"`
	Outcome string `json:"-"`
}

// BotDetails is the public projection of a bot. Nothing else about the bot
// is ever returned by the lookup.
type BotDetails struct {
	Name         string `json:"name"`
	PrimaryColor string `json:"primaryColor"`
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
}

type MessageReply struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type MessageRequest struct {
	SecretKey string `json:"secretKey"`
	Website   string `json:"website"`
	Message   string `json:"message"`
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// BotDetails returns the display attributes of the active bot matching both
// secretKey and website.
func (s *Service) BotDetails(ctx context.Context, secretKey, website string) (*Response, error) {
	if secretKey == "" || website == "" {
		return nil, newError(KindBadRequest, MsgMissingQuery, nil)
	}

	bot, err := s.bots.FindPublic(ctx, secretKey, website)
	if err != nil {
		if errors.Is(err, dbpkg.ErrBotNotFound) {
			return nil, newError(KindNotFound, MsgBotNotFound, err)
		}
		s.log.WithError(err).Error("fetching bot details")
		return nil, newError(KindInternal, MsgLookupFailed, err)
	}

	return &Response{
		Success: true,
		Data: BotDetails{
			Name:         bot.Name,
			PrimaryColor: bot.PrimaryColor,
			Status:       bot.Status,
			Timestamp:    s.timestamp(),
		},
		BotID:   bot.ID,
		Outcome: OutcomeOK,
	}, nil
}

// SendMessage answers req using the bot's knowledge base. A website mismatch
// and any AI failure are soft rejections: they return a Response with
// Success false rather than an error.
func (s *Service) SendMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	if req.SecretKey == "" || req.Website == "" || req.Message == "" {
		return nil, newError(KindBadRequest, MsgMissingFields, nil)
	}

	bot, err := s.bots.FindActiveBySecret(ctx, req.SecretKey)
	if err != nil {
		if errors.Is(err, dbpkg.ErrBotNotFound) {
			return nil, newError(KindUnauthorized, MsgInvalidSecret, err)
		}
		s.log.WithError(err).Error("resolving bot for chat")
		return nil, newError(KindInternal, MsgMessageFailed, err)
	}

	if bot.Website != req.Website {
		return &Response{
			Success:   false,
			Message:   MsgWebsiteMismatch,
			Timestamp: s.timestamp(),
			BotID:     bot.ID,
			Outcome:   OutcomeWebsiteMismatch,
		}, nil
	}

	prompt := BuildPrompt(bot.KnowledgeBase, s.instruction)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		status := ai.StatusCode(err)
		s.log.WithError(err).WithFields(logrus.Fields{
			"bot_id": bot.ID,
			"status": status,
		}).Error("AI generation failed")
		return &Response{
			Success:   false,
			Message:   aiFailureMessage(status),
			Timestamp: s.timestamp(),
			BotID:     bot.ID,
			Outcome:   OutcomeAIError,
		}, nil
	}

	return &Response{
		Success: true,
		Data: MessageReply{
			Message:   text,
			Timestamp: s.timestamp(),
		},
		BotID:   bot.ID,
		Outcome: OutcomeOK,
	}, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", ai.ErrMissingAPIKey
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.gen.Generate(ctx, prompt)
}

func aiFailureMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return MsgAIUnavailable
	case http.StatusForbidden:
		return MsgAIAuthFailed
	default:
		return MsgAIGenericFailure
	}
}
