package moderation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/pkg/errors"
)

var (
	ErrEmptyContent    = stderrors.New("content is empty")
	ErrContentTooLong  = stderrors.New("content is too long")
	ErrBannedWord      = stderrors.New("content contains a banned word")
	ErrPostingDisabled = stderrors.New("students cannot create posts")
	ErrUnknownContent  = stderrors.New("unknown content kind")
)

const (
	configCacheKey      = "moderation_config"
	configCacheDuration = 30 * time.Second
)

// Checker is what content-producing services depend on
type Checker interface {
	CheckContent(ctx context.Context, role, kind, text string) error
}

type Service struct {
	repo    repository.ModerationRepository
	auditor audit.Recorder
	cache   *cache.Cache
}

func NewService(repo repository.ModerationRepository, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cache:   cache.New(configCacheDuration, time.Minute),
	}
}

func (s *Service) Get(ctx context.Context) (*model.ModerationConfig, error) {
	if cached, ok := s.cache.Get(configCacheKey); ok {
		return cached.(*model.ModerationConfig), nil
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation config: %w", err)
	}
	s.cache.Set(configCacheKey, cfg, cache.DefaultExpiration)
	return cfg, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, req *model.UpdateModerationRequest) (*model.ModerationConfig, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.Forbidden("only admins may change moderation settings")
	}
	if req.MaxPostLength <= 0 || req.MaxReplyLength <= 0 {
		return nil, errors.BadRequest("maximum lengths must be positive", nil)
	}
	if req.StudentsCanPost == nil {
		return nil, errors.BadRequest("students_can_post is required", nil)
	}

	cfg := &model.ModerationConfig{
		BannedWords:     NormalizeWords(req.BannedWords),
		MaxPostLength:   req.MaxPostLength,
		MaxReplyLength:  req.MaxReplyLength,
		StudentsCanPost: *req.StudentsCanPost,
		UpdatedBy:       audit.ActorRef(actor.UserID),
	}

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save moderation config: %w", err)
	}
	s.cache.Delete(configCacheKey)

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(actor.UserID),
		Action:     audit.ActionModerationUpdate,
		EntityType: "moderation_config",
		EntityID:   "1",
		Metadata: map[string]interface{}{
			"banned_words":      len(cfg.BannedWords),
			"max_post_length":   cfg.MaxPostLength,
			"max_reply_length":  cfg.MaxReplyLength,
			"students_can_post": cfg.StudentsCanPost,
		},
	})

	return cfg, nil
}

// CheckContent applies the forum rules to text written by a user with role.
func (s *Service) CheckContent(ctx context.Context, role, kind, text string) error {
	cfg, err := s.Get(ctx)
	if err != nil {
		return err
	}

	var maxLen int
	switch kind {
	case model.ContentPost:
		maxLen = cfg.MaxPostLength
	case model.ContentReply:
		maxLen = cfg.MaxReplyLength
	case model.ContentMessage:
		maxLen = cfg.MaxPostLength
	case model.ContentTitle:
		// titles are bounded at binding time
	default:
		return fmt.Errorf("%w: %s", ErrUnknownContent, kind)
	}

	if strings.TrimSpace(text) == "" {
		return errors.BadRequest(fmt.Sprintf("%s is empty", kind), ErrEmptyContent)
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		return errors.BadRequest(fmt.Sprintf("%s exceeds %d characters", kind, maxLen), ErrContentTooLong)
	}
	if word, found := FindBannedWord(text, cfg.BannedWords); found {
		return errors.Validation(fmt.Sprintf("%s contains a banned word", kind),
			map[string]string{"word": word}, ErrBannedWord)
	}
	// checked last so that callers may ignore it for edits
	if kind == model.ContentPost && role == model.RoleStudent && !cfg.StudentsCanPost {
		return &errors.AppError{Code: errors.ErrForbidden, Message: ErrPostingDisabled.Error(), Err: ErrPostingDisabled}
	}
	return nil
}

// NormalizeWords lowercases, trims and de-duplicates a banned word list.
func NormalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Join(tokenize(w), " ")
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// FindBannedWord matches whole words case-insensitively. Multi-word
// entries match as consecutive words.
func FindBannedWord(text string, banned []string) (string, bool) {
	if len(banned) == 0 {
		return "", false
	}
	tokens := tokenize(text)
	for _, entry := range banned {
		needle := tokenize(entry)
		if len(needle) == 0 || len(needle) > len(tokens) {
			continue
		}
		for i := 0; i+len(needle) <= len(tokens); i++ {
			if equalTokens(tokens[i:i+len(needle)], needle) {
				return entry, true
			}
		}
	}
	return "", false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func equalTokens(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
