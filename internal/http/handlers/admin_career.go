package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/careerpath-backend/internal/http/response"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
	"github.com/yungbote/careerpath-backend/internal/services"
)

type AdminCareerHandler struct {
	log     *logger.Logger
	roadmap services.CareerRoadmapService
}

func NewAdminCareerHandler(log *logger.Logger, roadmap services.CareerRoadmapService) *AdminCareerHandler {
	return &AdminCareerHandler{
		log:     log.With("handler", "AdminCareerHandler"),
		roadmap: roadmap,
	}
}

type replaceMilestonesRequest struct {
	Milestones []services.RawMilestoneSpec `json:"milestones"`
}

// GET /api/admin/careers
func (h *AdminCareerHandler) ListCareers(c *gin.Context) {
	careers, err := h.roadmap.ListCareers(c.Request.Context())
	if err != nil {
		logFailure(h.log, "ListCareers failed", err)
		response.RespondServiceError(c, "load_careers_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"careers": careers})
}

// GET /api/admin/careers/:id
func (h *AdminCareerHandler) GetCareer(c *gin.Context) {
	careerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	career, err := h.roadmap.GetCareer(c.Request.Context(), careerID)
	if err != nil {
		logFailure(h.log, "GetCareer failed", err, "career_id", careerID)
		response.RespondServiceError(c, "load_career_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"career": career})
}

// PUT /api/admin/careers/:id/milestones
func (h *AdminCareerHandler) ReplaceMilestones(c *gin.Context) {
	careerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req replaceMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Milestones == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("milestones is required"))
		return
	}
	specs, err := services.ParseMilestoneSpecs(req.Milestones)
	if err != nil {
		response.RespondServiceError(c, "invalid_request", err)
		return
	}
	milestones, err := h.roadmap.ReplaceMilestones(c.Request.Context(), careerID, specs)
	if err != nil {
		logFailure(h.log, "ReplaceMilestones failed", err, "career_id", careerID)
		response.RespondServiceError(c, "replace_milestones_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"milestones": milestones})
}

// GET /api/admin/courses
func (h *AdminCareerHandler) ListCourses(c *gin.Context) {
	courses, err := h.roadmap.ListCourses(c.Request.Context())
	if err != nil {
		logFailure(h.log, "ListCourses failed", err)
		response.RespondServiceError(c, "load_courses_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}
