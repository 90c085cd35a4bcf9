package service

import (
	"context"
	"encoding/json"
	"time"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/repository"
)

// DataService serves the per-user document store. Bodies are opaque to the
// server: it validates that they are well-formed JSON of the right shape
// and otherwise only tracks revisions.
type DataService struct {
	docs         *repository.DocumentRepository
	watchTimeout time.Duration
}

func NewDataService(docs *repository.DocumentRepository, watchTimeout time.Duration) *DataService {
	return &DataService{docs: docs, watchTimeout: watchTimeout}
}

type DocumentView struct {
	Rev  int64
	Body json.RawMessage
}

func (s *DataService) GetSessions(ctx context.Context, userID string) (*DocumentView, *apperrors.APIError) {
	return s.get(ctx, userID, repository.DocSessions, json.RawMessage("[]"))
}

func (s *DataService) SaveSessions(ctx context.Context, userID string, body json.RawMessage) (int64, *apperrors.APIError) {
	var probe []json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return 0, apperrors.BadRequest("invalid_sessions", "sessions must be a JSON array")
	}
	return s.save(ctx, userID, repository.DocSessions, body)
}

func (s *DataService) GetSettings(ctx context.Context, userID string) (*DocumentView, *apperrors.APIError) {
	return s.get(ctx, userID, repository.DocSettings, json.RawMessage("null"))
}

func (s *DataService) SaveSettings(ctx context.Context, userID string, body json.RawMessage) (int64, *apperrors.APIError) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return 0, apperrors.BadRequest("invalid_settings", "settings must be a JSON object")
	}
	return s.save(ctx, userID, repository.DocSettings, body)
}

// Clear resets both documents to their empty values. Rows are overwritten
// rather than deleted so revisions stay monotonic for watchers.
func (s *DataService) Clear(ctx context.Context, userID string) *apperrors.APIError {
	if _, err := s.docs.Save(ctx, userID, repository.DocSessions, "[]"); err != nil {
		return apperrors.Internal("failed to clear sessions")
	}
	if _, err := s.docs.Save(ctx, userID, repository.DocSettings, "null"); err != nil {
		return apperrors.Internal("failed to clear settings")
	}
	return nil
}

// Watch blocks until the user's max revision exceeds since or the watch
// timeout elapses, then reports the current revision. Clients treat an
// unchanged revision as a timeout and poll again.
func (s *DataService) Watch(ctx context.Context, userID string, since int64) (int64, *apperrors.APIError) {
	deadline := time.Now().Add(s.watchTimeout)
	for {
		rev, err := s.docs.MaxRev(ctx, userID)
		if err != nil {
			return 0, apperrors.Internal("failed to read revision")
		}
		if rev > since || time.Now().After(deadline) {
			return rev, nil
		}
		select {
		case <-ctx.Done():
			return rev, nil
		case <-time.After(time.Second):
		}
	}
}

func (s *DataService) get(ctx context.Context, userID, name string, empty json.RawMessage) (*DocumentView, *apperrors.APIError) {
	doc, err := s.docs.Get(ctx, userID, name)
	if err == repository.ErrNotFound {
		return &DocumentView{Rev: 0, Body: empty}, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read document")
	}
	return &DocumentView{Rev: doc.Rev, Body: json.RawMessage(doc.Body)}, nil
}

func (s *DataService) save(ctx context.Context, userID, name string, body json.RawMessage) (int64, *apperrors.APIError) {
	rev, err := s.docs.Save(ctx, userID, name, string(body))
	if err != nil {
		return 0, apperrors.Internal("failed to save document")
	}
	return rev, nil
}
