package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"skillswap/internal/delivery/http/dto"
	"skillswap/internal/delivery/http/middleware"
	"skillswap/internal/pkg/response"
	"skillswap/internal/usecase"
)

var validate = validator.New()

type MatchPreviewHandler struct {
	uc usecase.MatchPreviewUsecase
}

func NewMatchPreviewHandler(uc usecase.MatchPreviewUsecase) *MatchPreviewHandler {
	return &MatchPreviewHandler{uc: uc}
}

func (h *MatchPreviewHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matches")
	grp.Get("/preview", h.GetPreview)
	grp.Delete("/preview", h.RefreshPreview)
}

func (h *MatchPreviewHandler) GetPreview(c fiber.Ctx) error {
	requesterID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized,
			response.ErrorPayload{Code: response.CodeUnauthorized}, nil)
	}

	q, err := parsePreviewQuery(c)
	if err != nil {
		return invalidRequest(err)
	}
	if err := validate.Struct(q); err != nil {
		return invalidRequest(err)
	}

	preview, err := h.uc.Preview(c.Context(), requesterID, usecase.PreviewParams{
		SkillTags:    q.Skills,
		Location:     q.Location,
		SkillLevel:   q.SkillLevel,
		Availability: q.Availability,
		Limit:        q.Limit,
		Offset:       q.Offset,
		SortBy:       q.SortBy,
	})
	if err != nil {
		return mapMatchPreviewError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchPreviewResponse(preview))
}

// RefreshPreview drops the caller's cached previews so the next GET
// reflects profile edits immediately instead of waiting out the TTL.
func (h *MatchPreviewHandler) RefreshPreview(c fiber.Ctx) error {
	requesterID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized,
			response.ErrorPayload{Code: response.CodeUnauthorized}, nil)
	}

	if err := h.uc.Refresh(c.Context(), requesterID); err != nil {
		return mapMatchPreviewError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func parsePreviewQuery(c fiber.Ctx) (dto.MatchPreviewQuery, error) {
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return dto.MatchPreviewQuery{}, err
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return dto.MatchPreviewQuery{}, err
	}

	return dto.MatchPreviewQuery{
		Skills:       parseCSVQuery(c.Query("skills")),
		Location:     c.Query("location"),
		SkillLevel:   strings.ToLower(strings.TrimSpace(c.Query("skill_level"))),
		Availability: strings.ToLower(strings.TrimSpace(c.Query("availability"))),
		Limit:        limit,
		Offset:       offset,
		SortBy:       strings.TrimSpace(c.Query("sort_by")),
	}, nil
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func parseCSVQuery(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func invalidRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest,
		response.ErrorPayload{Code: response.CodeInvalidRequest}, err)
}

func mapMatchPreviewError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return invalidRequest(err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized,
			response.ErrorPayload{Code: response.CodeUnauthorized}, err)
	case errors.Is(err, usecase.ErrRequesterNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Requester profile not found",
			response.ErrorPayload{Code: response.CodeRequesterNotFound}, err)
	case errors.Is(err, usecase.ErrCandidateSourceUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Candidate pool unavailable",
			response.ErrorPayload{Code: response.CodeCandidateSourceUnavailable}, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError,
			response.ErrorPayload{Code: response.CodeInternalError}, err)
	}
}
