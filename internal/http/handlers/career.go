package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/careerpath-backend/internal/http/response"
	"github.com/yungbote/careerpath-backend/internal/platform/apierr"
	"github.com/yungbote/careerpath-backend/internal/platform/ctxutil"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
	"github.com/yungbote/careerpath-backend/internal/services"
)

type CareerHandler struct {
	log      *logger.Logger
	progress services.CareerProgressService
}

func NewCareerHandler(log *logger.Logger, progress services.CareerProgressService) *CareerHandler {
	return &CareerHandler{
		log:      log.With("handler", "CareerHandler"),
		progress: progress,
	}
}

// GET /api/careers/:referenceId/progress
func (h *CareerHandler) GetProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	ref := strings.TrimSpace(c.Param("referenceId"))
	res, err := h.progress.GetCareerProgress(c.Request.Context(), rd.UserID, ref)
	if err != nil {
		h.logFailure("GetCareerProgress failed", err, "user_id", rd.UserID, "reference_id", ref)
		response.RespondServiceError(c, "load_career_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"career": res})
}

// POST /api/careers/sync
func (h *CareerHandler) Sync(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	report, err := h.progress.SyncAllUserCareers(c.Request.Context(), rd.UserID)
	if err != nil {
		h.logFailure("SyncAllUserCareers failed", err, "user_id", rd.UserID)
		response.RespondServiceError(c, "sync_careers_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

func (h *CareerHandler) logFailure(msg string, err error, kv ...interface{}) {
	logFailure(h.log, msg, err, kv...)
}

// logFailure logs server-side failures at error level and client errors at debug.
func logFailure(log *logger.Logger, msg string, err error, kv ...interface{}) {
	kv = append(kv, "error", err)
	if apierr.FromError(err, "").Status >= http.StatusInternalServerError {
		log.Error(msg, kv...)
		return
	}
	log.Debug(msg, kv...)
}
