package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// Ensure ResearchService implements the interface.
var _ driving.ResearchService = (*ResearchService)(nil)

// ResearchService runs the end-to-end pipeline: gather, index,
// synthesize, assemble, render and optionally deliver.
type ResearchService struct {
	gather       *GatherService
	orchestrator *Orchestrator
	assembler    *Assembler
	sessions     driven.SessionStore
	renderer     driven.Renderer
	mailer       driven.Mailer
}

// NewResearchService creates a research service. The mailer may be nil
// when delivery is not configured.
func NewResearchService(
	gather *GatherService,
	orchestrator *Orchestrator,
	assembler *Assembler,
	sessions driven.SessionStore,
	renderer driven.Renderer,
	mailer driven.Mailer,
) *ResearchService {
	return &ResearchService{
		gather:       gather,
		orchestrator: orchestrator,
		assembler:    assembler,
		sessions:     sessions,
		renderer:     renderer,
		mailer:       mailer,
	}
}

// Research runs a full research session for the topic.
//
// A fatal error at any phase moves the session to failed, persists that
// state for the audit trail, and returns domain.ErrSessionFailed.
// Rendering and delivery failures are deliberately not fatal: the
// report exists and is returned, with the failure recorded on the
// outcome.
func (s *ResearchService) Research(ctx context.Context, topic string, opts driving.ResearchOptions) (*driving.ResearchOutcome, error) {
	session, err := domain.NewSession(topic)
	if err != nil {
		return nil, err
	}
	if opts.MaxSources > 0 {
		s.gather.SetSessionCap(session.ID, opts.MaxSources)
		defer s.gather.SetSessionCap(session.ID, 0)
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	logger.Info("Session %s: researching %q", session.ID, topic)

	outcome := &driving.ResearchOutcome{Session: session}

	// Seed gathering with a search on the topic itself; the synthesis
	// loop widens from there with its own searches and fetches.
	logger.Section("Phase: gathering")
	summary, err := s.gather.Search(ctx, session.ID, topic)
	if err != nil {
		return outcome, s.fail(ctx, session, fmt.Errorf("initial gather: %w", err))
	}
	logger.Debug("Initial gather: %s", summary)

	if err := s.advance(ctx, session, domain.StatusRetrieving); err != nil {
		return outcome, err
	}
	if err := s.advance(ctx, session, domain.StatusSynthesizing); err != nil {
		return outcome, err
	}

	logger.Section("Phase: synthesis")
	answer, err := s.orchestrator.Run(ctx, session)
	if err != nil {
		return outcome, s.fail(ctx, session, err)
	}

	report, err := s.assembler.Assemble(ctx, session, answer)
	if err != nil {
		return outcome, s.fail(ctx, session, fmt.Errorf("assembling report: %w", err))
	}
	outcome.Report = report

	// Rendering failures never invalidate a completed session: the
	// report exists, so fall back to its canonical Markdown.
	rendered, err := s.renderer.Render(report)
	if err != nil {
		logger.Warn("rendering failed: %v", err)
		outcome.RenderError = err
		rendered = []byte(report.Markdown())
	}
	outcome.Rendered = rendered

	if len(opts.Recipients) > 0 {
		if err := s.deliver(ctx, report, opts.Recipients); err != nil {
			logger.Warn("delivery failed: %v", err)
			outcome.DeliveryError = err
		}
	}

	if err := s.advance(ctx, session, domain.StatusDone); err != nil {
		return outcome, err
	}
	logger.Info("Session %s: done", session.ID)
	return outcome, nil
}

// deliver emails the report as canonical Markdown regardless of the
// configured renderer, so recipients never receive ANSI escapes.
func (s *ResearchService) deliver(ctx context.Context, report *domain.Report, recipients []string) error {
	if s.mailer == nil {
		return fmt.Errorf("%w: no delivery provider configured", domain.ErrDelivery)
	}
	return s.mailer.Deliver(ctx, report.Title, []byte(report.Markdown()), recipients)
}

// advance moves the session forward and persists the new state.
func (s *ResearchService) advance(ctx context.Context, session *domain.Session, next domain.SessionStatus) error {
	if err := session.Advance(next); err != nil {
		return err
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// fail marks the session failed, persists it, and wraps the cause in
// domain.ErrSessionFailed.
func (s *ResearchService) fail(ctx context.Context, session *domain.Session, cause error) error {
	logger.Warn("session %s failed: %v", session.ID, cause)
	if err := session.Fail(); err == nil {
		if saveErr := s.sessions.SaveSession(ctx, session); saveErr != nil {
			logger.Warn("recording failure: %v", saveErr)
		}
	}
	if errors.Is(cause, domain.ErrSessionFailed) {
		return cause
	}
	return fmt.Errorf("%w: %v", domain.ErrSessionFailed, cause)
}
