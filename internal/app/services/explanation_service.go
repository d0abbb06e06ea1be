package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/afhamha/afhamha/internal/app/curriculum"
	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/repositories"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/cache"
	"github.com/afhamha/afhamha/internal/pkg/helpers"
	"github.com/afhamha/afhamha/internal/pkg/llm"
	"github.com/afhamha/afhamha/internal/pkg/validation"
)

const titleMaxRunes = 60

// ExplanationConfig holds the pricing and limits of the explanation workflow
type ExplanationConfig struct {
	CostPerRequest   int
	PointsPerRequest int
	HoursPerRequest  float64
	TrialDays        int
	MaxQueryLength   int
	DefaultMode      models.ExplanationMode
	CacheTTL         time.Duration
	RequestTimeout   time.Duration
}

// cachedReply is what the cache keeps for a question
type cachedReply struct {
	Title       string                `json:"title"`
	Explanation string                `json:"explanation"`
	Quiz        []models.QuizQuestion `json:"quiz"`
}

// ExplanationService runs the credit-gated explanation workflow
type ExplanationService struct {
	repos     *repositories.Repositories
	providers map[models.ExplanationMode]llm.Provider
	prompts   *llm.PromptBuilder
	cache     cache.Cache
	cfg       ExplanationConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExplanationService creates a new ExplanationService. A nil cache disables caching.
func NewExplanationService(
	repos *repositories.Repositories,
	providers map[models.ExplanationMode]llm.Provider,
	prompts *llm.PromptBuilder,
	c cache.Cache,
	cfg ExplanationConfig,
	logger zerolog.Logger,
) *ExplanationService {
	if c == nil {
		c = cache.NopCache{}
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = models.ModeChat
	}
	if cfg.CostPerRequest < 1 {
		cfg.CostPerRequest = 1
	}
	return &ExplanationService{
		repos:     repos,
		providers: providers,
		prompts:   prompts,
		cache:     c,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Explain answers a question for the user, charges the request and stores the explanation
func (s *ExplanationService) Explain(ctx context.Context, userID int64, req *dto.ExplainRequest) (*dto.ExplainResponse, error) {
	user, err := s.repos.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.TrialExpired(s.now(), s.cfg.TrialDays) {
		return nil, apperrors.ErrTrialExpired
	}
	if user.AICredits < s.cfg.CostPerRequest {
		return nil, apperrors.ErrInsufficientCredits
	}

	query, err := s.validateQuery(req.Query)
	if err != nil {
		return nil, err
	}

	subject, err := curriculum.FindSubject(user.StudyYear, req.Subject)
	if err != nil {
		return nil, err
	}

	mode, err := s.resolveMode(req.Mode)
	if err != nil {
		return nil, err
	}

	key := cache.Key(string(mode), user.StudyYear, subject.Key, normalizeQuery(query))
	reply, cached := s.lookup(ctx, key)
	if !cached {
		reply, err = s.generate(ctx, mode, user, subject, query)
		if err != nil {
			return nil, err
		}
	}

	explanation := &models.Explanation{
		UserID:    user.ID,
		Title:     reply.Title,
		StudyYear: user.StudyYear,
		Subject:   subject.Key,
		Query:     query,
		Content:   reply.Explanation,
		Quiz:      reply.Quiz,
		Mode:      mode,
		CreatedAt: s.now(),
	}

	var remaining int
	err = s.repos.Transaction(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		var err error
		remaining, err = tx.UserRepository.ConsumeCredits(ctx, user.ID, s.cfg.CostPerRequest, s.cfg.PointsPerRequest, s.cfg.HoursPerRequest)
		if err != nil {
			return err
		}
		return tx.ExplanationRepository.Create(ctx, explanation)
	})
	if err != nil {
		return nil, err
	}

	if !cached {
		s.store(ctx, key, reply)
	}

	s.logger.Info().
		Int64("userID", user.ID).
		Int64("explanationID", explanation.ID).
		Str("subject", subject.Key).
		Str("mode", string(mode)).
		Bool("cached", cached).
		Int("remainingCredits", remaining).
		Msg("Explanation created")

	return &dto.ExplainResponse{
		Explanation:      dto.NewExplanationResponse(explanation),
		RemainingCredits: remaining,
		Cached:           cached,
	}, nil
}

func (s *ExplanationService) validateQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", apperrors.NewValidationError("query must not be empty")
	}
	if s.cfg.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.cfg.MaxQueryLength {
		return "", apperrors.NewValidationError(fmt.Sprintf("query must be at most %d characters", s.cfg.MaxQueryLength))
	}
	return query, nil
}

func (s *ExplanationService) resolveMode(raw string) (models.ExplanationMode, error) {
	mode := models.ExplanationMode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		mode = s.cfg.DefaultMode
	}
	if _, ok := s.providers[mode]; !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnsupportedMode, mode)
	}
	return mode, nil
}

// generate calls the model for the mode and parses its reply
func (s *ExplanationService) generate(ctx context.Context, mode models.ExplanationMode, user *models.User, subject curriculum.Subject, query string) (cachedReply, error) {
	year, err := curriculum.FindYear(user.StudyYear)
	if err != nil {
		return cachedReply{}, err
	}

	yearName := year.NameAR
	subjectName := subject.Name
	if subject.IsEnglish() {
		yearName = year.Name
		subjectName = subject.NameEN
	}
	prompt := s.prompts.Build(llm.PromptInput{
		StudyYear:     user.StudyYear,
		StudyYearName: yearName,
		SubjectName:   subjectName,
		English:       subject.IsEnglish(),
		Query:         query,
	})

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	provider := s.providers[mode]
	started := s.now()
	raw, err := provider.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", provider.Name()).Int64("userID", user.ID).Msg("AI request failed")
		return cachedReply{}, fmt.Errorf("%w: %w", apperrors.ErrAIUnavailable, err)
	}

	parsed := llm.ParseReply(raw)
	if !parsed.Structured {
		s.logger.Warn().Str("provider", provider.Name()).Msg("AI reply was not JSON, storing raw text")
	}
	s.logger.Debug().Str("provider", provider.Name()).Dur("elapsed", time.Since(started)).Msg("AI reply received")

	title := parsed.Title
	if title == "" {
		title = validation.Truncate(query, titleMaxRunes)
	}

	quiz := make([]models.QuizQuestion, 0, len(parsed.Quiz))
	for _, q := range parsed.Quiz {
		quiz = append(quiz, models.QuizQuestion{Question: q.Question, Options: q.Options, Answer: q.Answer})
	}

	return cachedReply{
		Title:       validation.Truncate(title, 200),
		Explanation: parsed.Explanation,
		Quiz:        quiz,
	}, nil
}

func (s *ExplanationService) lookup(ctx context.Context, key string) (cachedReply, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Explanation cache lookup failed")
		return cachedReply{}, false
	}
	if !ok {
		return cachedReply{}, false
	}

	var reply cachedReply
	if err := json.Unmarshal(data, &reply); err != nil || reply.Explanation == "" {
		s.logger.Warn().Err(err).Msg("Discarding unreadable cache entry")
		return cachedReply{}, false
	}
	return reply, true
}

func (s *ExplanationService) store(ctx context.Context, key string, reply cachedReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode cache entry")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to store explanation in cache")
	}
}

// normalizeQuery folds case and whitespace so equivalent questions share a cache entry
func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// List returns a page of the user's explanations
func (s *ExplanationService) List(ctx context.Context, userID int64, page, size int) (*dto.PagedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.repos.ExplanationRepository.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ExplanationSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, dto.NewExplanationSummary(&items[i]))
	}

	return &dto.PagedResponse{
		Items:      summaries,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// Get returns one of the user's explanations
func (s *ExplanationService) Get(ctx context.Context, userID, id int64) (*dto.ExplanationResponse, error) {
	e, err := s.repos.ExplanationRepository.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewExplanationResponse(e)
	return &resp, nil
}

// Delete removes one of the user's explanations
func (s *ExplanationService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repos.ExplanationRepository.DeleteForUser(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Int64("explanationID", id).Msg("Explanation deleted")
	return nil
}
