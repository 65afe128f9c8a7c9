package worker

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lukaszraczylo/prompt-companion/internal/compose"
	gormdb "github.com/lukaszraczylo/prompt-companion/internal/db/gorm"
	"github.com/lukaszraczylo/prompt-companion/internal/resolve"
	"github.com/lukaszraczylo/prompt-companion/internal/worker/sse"
	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

func (s *Service) handleListSubprompts(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subpromptStore.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"subprompts": subs})
}

func (s *Service) handleCreateSubprompt(w http.ResponseWriter, r *http.Request) {
	var sp models.Subprompt
	if err := s.decode(r, &sp); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.subpromptStore.Create(r.Context(), &sp)
	if err != nil {
		s.writeError(w, storeErrStatus(err), err.Error())
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventSubpromptChanged, SubpromptID: created.ID})
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Service) handleGetSubprompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sp, err := s.subpromptStore.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sp == nil {
		s.writeError(w, http.StatusNotFound, "subprompt not found")
		return
	}
	s.writeJSON(w, http.StatusOK, sp)
}

func (s *Service) handleUpdateSubprompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var sp models.Subprompt
	if err := s.decode(r, &sp); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sp.ID = id

	updated, err := s.subpromptStore.Update(r.Context(), &sp)
	if err != nil {
		s.writeError(w, storeErrStatus(err), err.Error())
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventSubpromptChanged, SubpromptID: id})
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handleDeleteSubprompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.subpromptStore.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		s.writeError(w, http.StatusNotFound, "subprompt not found")
		return
	}

	scrubbed, err := s.subpromptStore.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("id", id).Int("referencesScrubbed", scrubbed).Msg("Subprompt deleted")
	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventSubpromptChanged, SubpromptID: id})
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":             id,
		"references_scrubbed": scrubbed,
	})
}

func (s *Service) handleMoveSubprompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		FolderID string `json:"folder_id"`
	}
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.subpromptStore.Move(r.Context(), id, req.FolderID); err != nil {
		s.writeError(w, storeErrStatus(err), err.Error())
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventSubpromptChanged, SubpromptID: id})
	s.writeJSON(w, http.StatusOK, map[string]string{"moved": id, "folder_id": req.FolderID})
}

func (s *Service) handleResolveSubprompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	start := time.Now()
	res, err := s.composer.Compose(r.Context(), id)
	if err != nil {
		if errors.Is(err, compose.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "subprompt not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.Resolutions.Add(r.Context(), 1)
	s.metrics.ResolutionWarnings.Add(r.Context(), int64(len(res.Warnings)))
	s.metrics.ResolveDuration.Record(r.Context(), time.Since(start).Seconds())
	s.writeJSON(w, http.StatusOK, res)
}

// handlePreview resolves an unsaved draft against the current library.
// Drafts carry a client edit sequence; only the newest one is broadcast,
// older ones come back marked stale.
func (s *Service) handlePreview(w http.ResponseWriter, r *http.Request) {
	var draft models.Subprompt
	if err := s.decode(r, &draft); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gen := s.preview.Next()

	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Snapshots can be shared between concurrent requests, so overlay the
	// draft onto a copy instead of mutating the loaded one.
	if draft.ID != "" {
		overlay := make(map[string]*models.Subprompt, len(snap.Subprompts)+1)
		for id, sp := range snap.Subprompts {
			overlay[id] = sp
		}
		overlay[draft.ID] = &draft
		snap = &models.Snapshot{Subprompts: overlay, Folders: snap.Folders}
	}

	text, warnings := resolve.Resolve(&draft, snap)
	stale := !s.preview.IsCurrent(gen)

	if !stale {
		s.sseBroadcaster.Broadcast(sse.Event{
			Type:        sse.EventPreviewReady,
			SubpromptID: draft.ID,
			Generation:  gen,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"text":       text,
		"warnings":   warnings,
		"generation": gen,
		"stale":      stale,
	})
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := s.config.SearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.subpromptStore.SearchSubprompts(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":      query,
		"subprompts": results,
	})
}

func (s *Service) handleCheckpointMatch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter name")
		return
	}

	res, matches, err := s.composer.MatchTriggerWords(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.TriggerScans.Add(r.Context(), 1)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"checkpoint": name,
		"matches":    matches,
		"result":     res,
	})
}

// storeErrStatus maps store errors to HTTP status codes.
func storeErrStatus(err error) int {
	if errors.Is(err, gormdb.ErrDuplicateName) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}
