package pages

import (
	"context"
	"strings"

	"github.com/ternarybob/realworld-e2e/internal/poller"
	"github.com/ternarybob/realworld-e2e/internal/report"
)

// searchPhase is the state of an article search
type searchPhase int

const (
	// phaseDirect polls the unfiltered feed, refreshing between attempts
	phaseDirect searchPhase = iota
	// phaseTagFallback filters the feed by each of the first visible tags
	phaseTagFallback
	// phaseExhausted means the budget ran out without a match
	phaseExhausted
)

func (p searchPhase) String() string {
	switch p {
	case phaseDirect:
		return "direct"
	case phaseTagFallback:
		return "tag-fallback"
	default:
		return "exhausted"
	}
}

// articleSearch finds an article title in the feed. Both phases draw from one
// attempt budget, so the whole search probes at most ArticleAttempts times.
type articleSearch struct {
	home   *HomePage
	title  string
	budget *poller.Budget
	phase  searchPhase

	// tagsTried is set once the fallback has run; later direct polling may spend the whole remainder
	tagsTried bool
}

// WaitForArticle waits for a preview whose title contains title. Direct polling
// comes first; part of the budget is kept back for searching under the first few
// visible tags, since a fresh article can show up in a filtered view before the
// global feed catches up. Attempts the tag phase could not use (fewer visible
// tags than configured) go back to direct polling. It reports false only when
// the budget runs out.
func (h *HomePage) WaitForArticle(ctx context.Context, title string) (bool, error) {
	return report.StepValue(h.site.Recorder, "Wait for article to appear: "+title, func() (bool, error) {
		s := &articleSearch{
			home:   h,
			title:  title,
			budget: poller.NewBudget(max(h.site.Poll.ArticleAttempts, 1)),
			phase:  phaseDirect,
		}
		return s.run(ctx)
	})
}

func (s *articleSearch) run(ctx context.Context) (bool, error) {
	logger := s.home.site.Logger
	for {
		if logger != nil {
			logger.Debug().
				Str("title", s.title).
				Str("phase", s.phase.String()).
				Int("remaining", s.budget.Remaining()).
				Msg("Article search phase")
		}

		var found bool
		var err error
		switch s.phase {
		case phaseDirect:
			found, err = s.direct(ctx)
			s.phase = phaseTagFallback
			if s.tagsTried || s.budget.Exhausted() {
				s.phase = phaseExhausted
			}
		case phaseTagFallback:
			found, err = s.tagFallback(ctx)
			s.tagsTried = true
			s.phase = phaseDirect
			if s.budget.Exhausted() {
				s.phase = phaseExhausted
			}
		case phaseExhausted:
			if logger != nil {
				logger.Error().
					Str("title", s.title).
					Int("attempts", s.budget.Used()).
					Msg("Article not found in main feed or popular tags")
			}
			return false, nil
		}
		if err != nil || found {
			return found, err
		}
	}
}

// direct keeps back one attempt per fallback tag, but always polls at least once.
// After the fallback it spends the rest, starting from a reloaded unfiltered feed.
func (s *articleSearch) direct(ctx context.Context) (bool, error) {
	site := s.home.site
	reserve := 0
	if !s.tagsTried {
		reserve = max(min(site.Poll.FallbackTags, s.budget.Remaining()-1), 0)
	} else if err := s.home.RefreshAndWaitForContent(ctx); err != nil {
		return false, err
	}
	attempts := s.budget.Remaining() - reserve

	res := poller.WaitFor(ctx, poller.Options[[]string]{
		Name:        "article:" + s.title,
		MaxAttempts: attempts,
		Interval:    site.Poll.ArticleInterval,
		OnRetry:     s.home.RefreshAndWaitForContent,
		Describe:    describeList,
		Logger:      site.Logger,
		Budget:      s.budget,
	}, s.home.ArticleTitles, s.matches)
	return res.Found, res.Err
}

func (s *articleSearch) tagFallback(ctx context.Context) (bool, error) {
	site := s.home.site
	if s.budget.Exhausted() || site.Poll.FallbackTags <= 0 {
		return false, nil
	}

	if err := s.home.RefreshAndWaitForContent(ctx); err != nil {
		return false, err
	}
	tags, err := s.home.VisibleTags(ctx)
	if err != nil {
		return false, err
	}
	if len(tags) > site.Poll.FallbackTags {
		tags = tags[:site.Poll.FallbackTags]
	}

	for i, tag := range tags {
		if !s.budget.Take() {
			break
		}
		if i > 0 {
			if err := s.home.RefreshAndWaitForContent(ctx); err != nil {
				return false, err
			}
		}
		if site.Logger != nil {
			site.Logger.Info().Str("tag", tag).Str("title", s.title).Msg("Checking tag for article")
		}

		if err := s.home.selectTag(ctx, tag); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if site.Logger != nil {
				site.Logger.Warn().Err(err).Str("tag", tag).Msg("Error checking tag")
			}
			continue
		}
		titles, err := s.home.ArticleTitles(ctx)
		if err != nil {
			return false, err
		}
		if s.matches(titles) {
			if site.Logger != nil {
				site.Logger.Info().Str("tag", tag).Str("title", s.title).Msg("Article found under tag")
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *articleSearch) matches(titles []string) bool {
	for _, t := range titles {
		if strings.Contains(t, s.title) {
			return true
		}
	}
	return false
}
