package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/geodemo/popsynth/internal/models"
	"github.com/geodemo/popsynth/internal/store/ledger"
	"github.com/geodemo/popsynth/pkg/geo"
)

var validate = validator.New()

// CreateRunRequest is the body of POST /api/v1/runs. Seed is a pointer so
// an explicit seed of 0 survives the required check.
type CreateRunRequest struct {
	Territory string `json:"territory" validate:"required"`
	Seed      *int64 `json:"seed" validate:"required"`
}

// RunResponse is the JSON shape of one run.
type RunResponse struct {
	ID         string `json:"id"`
	Territory  string `json:"territory"`
	Seed       int64  `json:"seed"`
	Status     string `json:"status"`
	WorkerID   string `json:"worker_id,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runResponse(r ledger.Run) RunResponse {
	resp := RunResponse{
		ID:        r.ID,
		Territory: r.Territory,
		Seed:      r.Seed,
		Status:    r.Status,
		StartedAt: r.StartedAt,
	}
	if r.WorkerID.Valid {
		resp.WorkerID = r.WorkerID.String
	}
	if r.FinishedAt.Valid {
		resp.FinishedAt = r.FinishedAt.String
	}
	return resp
}

// CreateRun enqueues a new generation run. The run starts in the pending
// state and is picked up by the run worker.
func CreateRun(q ledger.Querier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, *models.NewAPIError("invalid_json", "request body is not valid JSON"))
			return
		}
		if err := validate.Struct(req); err != nil {
			fields := map[string]string{}
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					fields[fe.Field()] = fe.Tag()
				}
			}
			WriteValidationError(w, r, *models.NewValidationError("missing or invalid fields", fields))
			return
		}
		if _, err := geo.Lookup(req.Territory); err != nil {
			WriteError(w, r, *models.NewInputShapeError(err.Error()))
			return
		}

		run := ledger.CreateRunParams{
			ID:        uuid.New().String(),
			Territory: req.Territory,
			Seed:      *req.Seed,
			StartedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := q.CreateRun(r.Context(), run); err != nil {
			logger.Error("create run failed", "error", err)
			WriteError(w, r, *models.NewAPIError("create_run_failed", "could not enqueue run"))
			return
		}

		logger.Info("run enqueued", "run_id", run.ID, "territory", run.Territory, "seed", run.Seed)
		WriteJSON(w, http.StatusAccepted, RunResponse{
			ID:        run.ID,
			Territory: run.Territory,
			Seed:      run.Seed,
			Status:    ledger.RunPending,
			StartedAt: run.StartedAt,
		})
	}
}

// GetRun returns one run by id.
func GetRun(q ledger.Querier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, r, *models.NewAPIError("missing_run_id", "run id is required"))
			return
		}
		run, err := q.GetRun(r.Context(), id)
		if err == sql.ErrNoRows {
			WriteError(w, r, *models.NewAPIError("run_not_found", "no run with id "+id))
			return
		}
		if err != nil {
			logger.Error("get run failed", "run_id", id, "error", err)
			WriteError(w, r, *models.NewAPIError("get_run_failed", "could not load run"))
			return
		}
		WriteJSON(w, http.StatusOK, runResponse(run))
	}
}

// ListRuns returns every run, newest first.
func ListRuns(q ledger.Querier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := q.ListRuns(r.Context())
		if err != nil {
			logger.Error("list runs failed", "error", err)
			WriteError(w, r, *models.NewAPIError("list_runs_failed", "could not list runs"))
			return
		}
		out := make([]RunResponse, 0, len(runs))
		for _, run := range runs {
			out = append(out, runResponse(run))
		}
		WriteJSON(w, http.StatusOK, out)
	}
}

// TileRunResponse is the JSON shape of one tile's progress within a run.
type TileRunResponse struct {
	TileID      string `json:"tile_id"`
	Status      string `json:"status"`
	Households  int64  `json:"households"`
	Individuals int64  `json:"individuals"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

// GetRunTiles returns per-tile progress for one run.
func GetRunTiles(q ledger.Querier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := q.GetRun(r.Context(), id); err == sql.ErrNoRows {
			WriteError(w, r, *models.NewAPIError("run_not_found", "no run with id "+id))
			return
		} else if err != nil {
			logger.Error("get run failed", "run_id", id, "error", err)
			WriteError(w, r, *models.NewAPIError("get_run_failed", "could not load run"))
			return
		}

		tiles, err := q.ListTileRuns(r.Context(), id)
		if err != nil {
			logger.Error("list tile runs failed", "run_id", id, "error", err)
			WriteError(w, r, *models.NewAPIError("get_run_failed", "could not load tile progress"))
			return
		}
		out := make([]TileRunResponse, 0, len(tiles))
		for _, t := range tiles {
			resp := TileRunResponse{
				TileID:      t.TileID,
				Status:      t.Status,
				Households:  t.Households,
				Individuals: t.Individuals,
				StartedAt:   t.StartedAt,
			}
			if t.FinishedAt.Valid {
				resp.FinishedAt = t.FinishedAt.String
			}
			out = append(out, resp)
		}
		WriteJSON(w, http.StatusOK, out)
	}
}
