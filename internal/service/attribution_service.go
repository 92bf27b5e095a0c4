package service

import (
	"context"
	"time"

	"techstore/internal/models"
	"techstore/internal/session"
	"techstore/internal/util"

	"go.uber.org/zap"
)

// Fallback values recorded when a visitor arrives without campaign tags.
const (
	AttributionDirect = "direct"
	AttributionNone   = "none"
)

// AttributionService captures first-touch UTM attribution. The earliest
// record for a session always wins; later captures are ignored.
type AttributionService struct {
	sessions session.Store
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttributionService creates a new attribution service
func NewAttributionService(sessions session.Store) *AttributionService {
	return &AttributionService{
		sessions: sessions,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// CaptureRequest carries the campaign parameters from the landing URL.
type CaptureRequest struct {
	Source      string `json:"utm_source"`
	Medium      string `json:"utm_medium"`
	Campaign    string `json:"utm_campaign"`
	Term        string `json:"utm_term"`
	Content     string `json:"utm_content"`
	Referrer    string `json:"referrer"`
	LandingPage string `json:"landing_page"`
}

// Capture records the attribution for a session unless one already exists.
// It returns the record now associated with the session and whether this
// call stored it.
func (as *AttributionService) Capture(ctx context.Context, sessionID string, req *CaptureRequest) (*models.Attribution, bool, error) {
	attr := &models.Attribution{
		Source:      req.Source,
		Medium:      req.Medium,
		Campaign:    req.Campaign,
		Term:        req.Term,
		Content:     req.Content,
		Referrer:    req.Referrer,
		LandingPage: req.LandingPage,
		CapturedAt:  as.now(),
	}
	if attr.Source == "" {
		attr.Source = AttributionDirect
	}
	if attr.Medium == "" {
		attr.Medium = AttributionNone
	}

	captured, err := as.sessions.CaptureAttribution(ctx, sessionID, attr)
	if err != nil {
		return nil, false, err
	}

	if captured {
		as.logger.Info("Captured attribution",
			zap.String("session_id", sessionID),
			zap.String("source", attr.Source),
			zap.String("medium", attr.Medium),
			zap.String("campaign", attr.Campaign))
		return attr, true, nil
	}

	existing, err := as.sessions.GetAttribution(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
