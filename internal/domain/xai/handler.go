package xai

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/triagexai/triage/internal/platform/auth"
	"github.com/triagexai/triage/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/explanations/:session_id", h.GetExplanation)
	api.GET("/explanations/:session_id/clinical", h.GetClinicalExplanation,
		auth.RequireRole(auth.RoleClinician, auth.RoleAdmin))
	api.GET("/explanations/:session_id/features", h.GetFeatureContributions)

	api.POST("/prescriptions", h.CreatePrescription)
	api.GET("/prescriptions", h.ListPrescriptions)
}

func requestInfo(c echo.Context) (RequestInfo, error) {
	uid := auth.UserIDFromContext(c.Request().Context())
	if uid == "" {
		return RequestInfo{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return RequestInfo{
		UserID:    uid,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}, nil
}

func sessionParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func toHTTPError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

func (h *Handler) GetExplanation(c echo.Context) error {
	req, err := requestInfo(c)
	if err != nil {
		return err
	}
	sessionID, err := sessionParam(c)
	if err != nil {
		return err
	}
	e, _, err := h.svc.ExplanationForSession(c.Request().Context(), sessionID, req.UserID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, e)
}

type sessionView struct {
	ID                    uuid.UUID `json:"id"`
	SymptomsText          string    `json:"symptoms_text"`
	Source                string    `json:"source"`
	InferenceMode         string    `json:"inference_mode"`
	Diagnosis             string    `json:"diagnosis"`
	Severity              Severity  `json:"severity"`
	ConfidenceScore       float64   `json:"confidence_score"`
	Recommendations       []string  `json:"recommendations"`
	DifferentialDiagnoses []string  `json:"differential_diagnoses"`
}

type clinicalResponse struct {
	*ClinicalSummary
	Session sessionView `json:"session"`
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// GetClinicalExplanation serves clinicians, who may read any session.
func (h *Handler) GetClinicalExplanation(c echo.Context) error {
	req, err := requestInfo(c)
	if err != nil {
		return err
	}
	sessionID, err := sessionParam(c)
	if err != nil {
		return err
	}
	e, facts, err := h.svc.ExplanationForSession(c.Request().Context(), sessionID, "", req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, clinicalResponse{
		ClinicalSummary: h.svc.GetClinicalSummary(e),
		Session: sessionView{
			ID:                    facts.SessionID,
			SymptomsText:          facts.SymptomsText,
			Source:                facts.Source,
			InferenceMode:         facts.InferenceMode,
			Diagnosis:             facts.Diagnosis,
			Severity:              facts.Severity,
			ConfidenceScore:       facts.ConfidenceScore,
			Recommendations:       nonNil(facts.Recommendations),
			DifferentialDiagnoses: nonNil(facts.DifferentialDiagnoses),
		},
	})
}

type featuresResponse struct {
	ExplanationID uuid.UUID             `json:"explanation_id"`
	Method        Method                `json:"method"`
	TotalFeatures int                   `json:"total_features"`
	Features      []FeatureContribution `json:"features"`
}

func (h *Handler) GetFeatureContributions(c echo.Context) error {
	req, err := requestInfo(c)
	if err != nil {
		return err
	}
	sessionID, err := sessionParam(c)
	if err != nil {
		return err
	}
	e, _, err := h.svc.ExplanationForSession(c.Request().Context(), sessionID, req.UserID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, featuresResponse{
		ExplanationID: e.ID,
		Method:        e.Method,
		TotalFeatures: len(e.FeatureContributions),
		Features:      FilterContributions(e, c.QueryParam("category")),
	})
}

type createPrescriptionRequest struct {
	SymptomsText string     `json:"symptoms_text"`
	SessionID    *uuid.UUID `json:"session_id"`
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	req, err := requestInfo(c)
	if err != nil {
		return err
	}
	var body createPrescriptionRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.GeneratePrescription(c.Request().Context(), PrescriptionRequest{
		RequestInfo:  req,
		SymptomsText: body.SymptomsText,
		SessionID:    body.SessionID,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	req, err := requestInfo(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContextWithDefault(c, h.svc.HistoryLimit())
	items, err := h.svc.GetUserPrescriptions(c.Request().Context(), req.UserID, pg.Limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}
