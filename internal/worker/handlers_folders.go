package worker

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lukaszraczylo/prompt-companion/internal/hierarchy"
	"github.com/lukaszraczylo/prompt-companion/internal/worker/sse"
	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

func (s *Service) handleTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, hierarchy.BuildTree(snap))
}

func (s *Service) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.folderStore.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders})
}

func (s *Service) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var f models.Folder
	if err := s.decode(r, &f); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.folderStore.Create(r.Context(), &f)
	if err != nil {
		s.writeError(w, storeErrStatus(err), err.Error())
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventFolderChanged, FolderID: created.ID})
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Service) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, err := s.folderStore.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if f == nil {
		s.writeError(w, http.StatusNotFound, "folder not found")
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

func (s *Service) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Name string `json:"name"`
	}
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "folder name must not be empty")
		return
	}

	renamed, err := s.folderStore.Rename(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, storeErrStatus(err), err.Error())
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventFolderChanged, FolderID: id})
	s.writeJSON(w, http.StatusOK, renamed)
}

// handleMoveFolder reparents a folder after checking that the move would
// not make the folder its own ancestor.
func (s *Service) handleMoveFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		ParentID string `json:"parent_id"`
	}
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap.Folder(id) == nil {
		s.writeError(w, http.StatusNotFound, "folder not found")
		return
	}

	if err := hierarchy.ValidateReparent(id, req.ParentID, snap); err != nil {
		var cycleErr *hierarchy.CycleError
		if errors.As(err, &cycleErr) {
			s.writeError(w, http.StatusConflict, cycleErr.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.folderStore.Move(r.Context(), id, req.ParentID); err != nil {
		s.writeError(w, storeErrStatus(err), err.Error())
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventFolderChanged, FolderID: id})
	s.writeJSON(w, http.StatusOK, map[string]string{"moved": id, "parent_id": req.ParentID})
}

// handleDeleteFolder plans the deletion against a snapshot, then applies
// the whole plan in one transaction. Mode comes from the query string,
// falling back to the configured default.
func (s *Service) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	mode := hierarchy.DeletionMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = hierarchy.DeletionMode(s.config.DeleteMode)
	}
	if mode != hierarchy.ModePromote && mode != hierarchy.ModeCascade {
		s.writeError(w, http.StatusBadRequest, "mode must be promote or cascade")
		return
	}

	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap.Folder(id) == nil {
		s.writeError(w, http.StatusNotFound, "folder not found")
		return
	}

	plan, err := hierarchy.PlanFolderDeletion(id, mode, snap)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.folderStore.ApplyDeletionPlan(r.Context(), plan); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("folder", id).
		Str("mode", string(mode)).
		Int("foldersDeleted", len(plan.DeleteFolderIDs)).
		Int("subpromptsDeleted", len(plan.DeleteSubpromptIDs)).
		Msg("Folder deleted")

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventFolderChanged, FolderID: id})
	s.writeJSON(w, http.StatusOK, plan)
}

// handleIntegrity reports structural problems in the stored hierarchy:
// duplicate sibling names, orphaned parents and parent cycles.
func (s *Service) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	problems := hierarchy.CheckIntegrity(snap)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       len(problems) == 0,
		"problems": problems,
	})
}

func (s *Service) handleFolderPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap.Folder(id) == nil {
		s.writeError(w, http.StatusNotFound, "folder not found")
		return
	}

	path, err := hierarchy.ComputePath(id, snap)
	if err != nil {
		if errors.Is(err, hierarchy.ErrIntegrity) {
			// Corrupt parent chain: treat the folder as root-level so the
			// endpoint keeps answering while the cycle gets repaired.
			log.Warn().Err(err).Str("folder_id", id).Msg("folder path degraded to root level")
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"id":       id,
				"path":     snap.Folder(id).Name,
				"degraded": true,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"id": id, "path": path})
}
