package serve

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/aggregate"
	"github.com/reegis/coastdat-cli/internal/series"
)

// resultInfo is one entry of the result listing.
type resultInfo struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	RunID   string `json:"run_id,omitempty"`
	Year    int    `json:"year,omitempty"`
	Columns int    `json:"columns,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(s.resultDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []resultInfo{})
			return
		}
		s.serverError(w, "list results", err)
		return
	}

	results := make([]resultInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		r := resultInfo{
			Name: strings.TrimSuffix(e.Name(), ".csv"),
			Size: info.Size(),
		}
		if m, err := aggregate.ReadManifest(aggregate.ManifestPath(filepath.Join(s.resultDir, e.Name()))); err == nil {
			r.RunID = m.RunID
			r.Year = m.Year
			r.Columns = m.Columns
		}
		results = append(results, r)
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resultPath(w, chi.URLParam(r, "name"), ".csv")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resultPath(w, chi.URLParam(r, "name"), ".run.yaml")
	if !ok {
		return
	}
	m, err := aggregate.ReadManifest(path)
	if err != nil {
		s.serverError(w, "read manifest", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resultPath(w, chi.URLParam(r, "name"), ".csv")
	if !ok {
		return
	}
	cols, err := series.ReadMultiHeader(path)
	if err != nil {
		s.serverError(w, "read result header", err)
		return
	}

	type column struct {
		Region string `json:"region"`
		Set    string `json:"set"`
		Subset string `json:"subset"`
	}
	out := make([]column, 0, len(cols))
	for _, c := range cols {
		out = append(out, column{Region: string(c.Region), Set: c.Set, Subset: c.Subset})
	}
	writeJSON(w, http.StatusOK, out)
}

// resultPath resolves a result name to a file inside the result dir,
// rejecting traversal and missing files.
func (s *Server) resultPath(w http.ResponseWriter, name, ext string) (string, bool) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		http.Error(w, `{"error":"invalid result name"}`, http.StatusBadRequest)
		return "", false
	}
	path := filepath.Join(s.resultDir, name+ext)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, `{"error":"result not found"}`, http.StatusNotFound)
		return "", false
	}
	return path, true
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
