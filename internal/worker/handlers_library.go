package worker

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lukaszraczylo/prompt-companion/internal/library"
	"github.com/lukaszraczylo/prompt-companion/internal/worker/sse"
)

// handleExport streams the whole library as a YAML archive.
func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := yaml.Marshal(library.Export(snap))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="library.yaml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("Failed to write export")
	}
}

// handleImport merges a YAML archive from the request body into the
// library. Pass overwrite=true to update entries whose ID already exists.
func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var archive library.Archive
	if err := yaml.Unmarshal(body, &archive); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid archive: "+err.Error())
		return
	}
	if archive.Version > library.ArchiveVersion {
		s.writeError(w, http.StatusBadRequest, "archive version not supported")
		return
	}

	overwrite := r.URL.Query().Get("overwrite") == "true"

	stats, err := s.ImportArchive(r.Context(), &archive, overwrite)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// ImportArchive merges an archive into the library, bumps metrics and
// notifies SSE clients. The library watcher uses it for archives dropped
// into the library directory; the import handler for uploaded ones.
func (s *Service) ImportArchive(ctx context.Context, archive *library.Archive, overwrite bool) (*library.ImportStats, error) {
	importer := library.NewImporter(s.subpromptStore, s.folderStore)
	stats, err := importer.Import(ctx, archive, overwrite)
	if err != nil {
		return nil, err
	}

	s.metrics.ImportsApplied.Add(ctx, 1)
	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventLibraryImported, Payload: stats})
	return stats, nil
}
