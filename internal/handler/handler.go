// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/render"
)

// bestSlotsLimit caps the ranked suggestions in a consensus response.
const bestSlotsLimit = 10

// TeamHandler holds all HTTP handlers for the scheduling API.
type TeamHandler struct {
	svc      *service.Scheduler
	render   *render.Render
	validate *validator.Validate
	logger   *logging.Logger
}

// NewTeamHandler constructs a TeamHandler.
func NewTeamHandler(svc *service.Scheduler, logger *logging.Logger) *TeamHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &TeamHandler{
		svc:      svc,
		render:   render.New(),
		validate: validate,
		logger:   logger,
	}
}

// ConsensusResponse is a consensus view plus the derived suggestions.
type ConsensusResponse struct {
	*model.ConsensusView
	ConsensusSlots []model.Slot          `json:"consensus_slots"`
	BestSlots      []model.ConsensusCell `json:"best_slots"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func (h *TeamHandler) writeError(w http.ResponseWriter, status int, msg string) {
	_ = h.render.JSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
func (h *TeamHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// writeServiceError maps domain errors onto HTTP status codes.
func (h *TeamHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidRange):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTeamNotFound):
		h.writeError(w, http.StatusNotFound, "team not found")
	case errors.Is(err, service.ErrGamerNotFound):
		h.writeError(w, http.StatusNotFound, "gamer not found")
	case errors.Is(err, service.ErrNotMember):
		h.writeError(w, http.StatusForbidden, "you are not a member of this team")
	case errors.Is(err, service.ErrTeamFull):
		h.writeError(w, http.StatusConflict, "team is at maximum capacity")
	case errors.Is(err, service.ErrNameTaken):
		h.writeError(w, http.StatusConflict, "display name already taken")
	case errors.Is(err, service.ErrCodeGenerationFailed):
		h.writeError(w, http.StatusServiceUnavailable, "could not allocate a team code, try again")
	default:
		h.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// RegisterGamer handles POST /gamers
func (h *TeamHandler) RegisterGamer(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterGamerRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	gamer, err := h.svc.RegisterGamer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	_ = h.render.JSON(w, http.StatusCreated, gamer)
}

// GetGamer handles GET /gamers/{id}
func (h *TeamHandler) GetGamer(w http.ResponseWriter, r *http.Request) {
	gamer, err := h.svc.GetGamer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, gamer)
}

// CreateTeam handles POST /teams
// Creates a team with the calling gamer as its first member.
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTeamRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := h.svc.CreateAndJoin(r.Context(), GamerID(r.Context()), req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	_ = h.render.JSON(w, http.StatusCreated, team)
}

// JoinTeam handles POST /teams/join
// Responds 201 on a new membership and 200 when already a member.
func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	var req model.JoinTeamRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Join(r.Context(), GamerID(r.Context()), req.Code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Joined {
		status = http.StatusCreated
	}
	_ = h.render.JSON(w, status, res)
}

// GetTeam handles GET /teams/{code}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetTeam(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, detail)
}

// ListMembers handles GET /teams/{code}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if members == nil {
		members = []model.Membership{}
	}
	_ = h.render.JSON(w, http.StatusOK, members)
}

// GetAvailability handles GET /teams/{code}/availability
// Returns the calling gamer's grid as seven rows of 24 hours.
func (h *TeamHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	grid, err := h.svc.GetAvailability(r.Context(), GamerID(r.Context()), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, grid)
}

// SetAvailability handles PUT /teams/{code}/availability
func (h *TeamHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.SetAvailabilityRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	code := chi.URLParam(r, "code")
	err := h.svc.SetAvailability(ctx, GamerID(ctx), code, model.Weekday(req.Day), req.StartHour, req.StopHour, req.Available)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	grid, err := h.svc.GetAvailability(ctx, GamerID(ctx), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, grid)
}

// GetConsensus handles GET /teams/{code}/consensus?member=<id>&member=<id>
// Without member parameters every current member is included.
func (h *TeamHandler) GetConsensus(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	members := r.URL.Query()["member"]

	var (
		view *model.ConsensusView
		err  error
	)
	if len(members) == 0 {
		view, err = h.svc.GetTeamConsensus(r.Context(), code)
	} else {
		view, err = h.svc.GetConsensus(r.Context(), code, members)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	slots := view.ConsensusSlots()
	if slots == nil {
		slots = []model.Slot{}
	}
	best := view.BestSlots(bestSlotsLimit)
	if best == nil {
		best = []model.ConsensusCell{}
	}
	_ = h.render.JSON(w, http.StatusOK, ConsensusResponse{
		ConsensusView:  view,
		ConsensusSlots: slots,
		BestSlots:      best,
	})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func (h *TeamHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	_ = h.render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
