// Package i18n resolves display text in the operator's chosen language.
package i18n

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/hi"
	"github.com/go-playground/locales/mr"
	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var errNoLoader = errors.New("no message loader configured")

type (
	// Loader fetches the remote message table for a language.
	Loader interface {
		LoadMessages(ctx context.Context, code string) (map[string]string, error)
	}

	// PreferenceStore persists the chosen language.
	PreferenceStore interface {
		LoadLanguage(ctx context.Context) (code string, ok bool, err error)
		SaveLanguage(ctx context.Context, code string) error
	}

	Service struct {
		loader Loader
		prefs  PreferenceStore
		logger core.Logger
		uni    *ut.UniversalTranslator

		mu       sync.RWMutex
		fallback string // startup language when nothing else applies
		lang     string
		catalog  *Catalog
		seq      uint64 // last issued load
		applied  uint64 // last applied load
	}
)

func New(loader Loader, prefs PreferenceStore, logger core.Logger) *Service {
	_en := en.New()
	return &Service{
		loader:   loader,
		prefs:    prefs,
		logger:   logger,
		uni:      ut.New(_en, _en, hi.New(), mr.New()),
		fallback: DefaultLanguage,
		lang:     DefaultLanguage,
		catalog:  DefaultCatalog(),
	}
}

// UseDefault sets the startup language used by Initialize when neither a saved preference
// nor the environment resolves to a supported language. Unsupported codes mean DefaultLanguage.
func (s *Service) UseDefault(code string) {
	s.mu.Lock()
	s.fallback = Normalize(code)
	s.mu.Unlock()
}

// Initialize resolves the startup language: the persisted preference, then the negotiated
// environment preferences, then the default set by UseDefault. Its messages are loaded before returning.
func (s *Service) Initialize(ctx context.Context, negotiated ...string) {
	s.mu.RLock()
	code := s.fallback
	s.mu.RUnlock()
	saved, ok, err := s.prefs.LoadLanguage(ctx)
	switch {
	case err != nil:
		s.logger.Warn("loading language preference", err)
		fallthrough
	case !ok || !IsSupported(saved):
		if neg, found := Negotiate(negotiated...); found {
			code = neg
		}
	default:
		code = saved
	}

	s.mu.Lock()
	s.lang = code
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.loadMessages(ctx, code, seq)
}

// ChangeLanguage switches to code, normalizing unsupported codes to DefaultLanguage.
// Nothing happens when code is already the current language.
func (s *Service) ChangeLanguage(ctx context.Context, code string) {
	code = Normalize(code)

	s.mu.Lock()
	if code == s.lang {
		s.mu.Unlock()
		return
	}
	s.lang = code
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if err := s.prefs.SaveLanguage(ctx, code); err != nil {
		s.logger.Warn("saving language preference", err)
	}
	s.loadMessages(ctx, code, seq)
}

// loadMessages never fails: a failed fetch degrades to the static table for code.
// The result is dropped if a later load was issued meanwhile.
func (s *Service) loadMessages(ctx context.Context, code string, seq uint64) bool {
	var override map[string]string
	remote, err := s.fetch(ctx, code)
	if err != nil {
		s.logger.Warn("loading language messages", err, map[string]interface{}{"lang": code})
		override = fallbackMessages[code]
	} else {
		override = remote
	}
	catalog := NewCatalog(defaultMessages, override)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.logger.Debug("discarding stale language messages", map[string]interface{}{"lang": code, "seq": seq})
		return false
	}
	s.catalog = catalog
	s.applied = seq
	return true
}

func (s *Service) fetch(ctx context.Context, code string) (map[string]string, error) {
	if s.loader == nil {
		return nil, errNoLoader
	}
	return s.loader.LoadMessages(ctx, code)
}

// T translates key with the current catalog.
func (s *Service) T(key string, params Params) string {
	return s.Messages().T(key, params)
}

func (s *Service) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// LanguageInfo returns the current language metadata.
func (s *Service) LanguageInfo() Language {
	lang, _ := Lookup(s.Language())
	if lang.Code == "" {
		return supported[0]
	}
	return lang
}

func (s *Service) Dir() string {
	return Dir(s.Language())
}

// Messages returns the current catalog; it is replaced, never mutated.
func (s *Service) Messages() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Loading is true while the latest requested language is not applied yet.
func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied != s.seq
}

func (s *Service) Supported() []Language {
	return Supported()
}

// Locale formatting

func (s *Service) translator() ut.Translator {
	trans, found := s.uni.GetTranslator(s.Language())
	if !found {
		trans = s.uni.GetFallback()
	}
	return trans
}

// Percent formats a 0-100 rate, e.g. an attendance percentage.
func (s *Service) Percent(rate float64) string {
	return s.translator().FmtPercent(rate, 1)
}

func (s *Service) Date(t time.Time) string {
	return s.translator().FmtDateMedium(t)
}

func (s *Service) Number(n float64, decimals uint64) string {
	return s.translator().FmtNumber(n, decimals)
}
