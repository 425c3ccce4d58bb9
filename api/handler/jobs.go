package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/courtsched/jobs"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/sheet"
)

// PostJob returns a handler for POST /api/v1/jobs.
//
// The batch runs in the background; the response only acknowledges it.
// Results are delivered through the job notification.
func PostJob(o *jobs.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.JobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		accept(c, o, req.Cases, req.CDPURL)
	}
}

// UploadJob returns a handler for POST /api/v1/jobs/upload, which takes an
// xlsx workbook in the multipart field "file" and an optional "cdp_url".
func UploadJob(o *jobs.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "multipart field \"file\" is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "cannot read uploaded file: "+err.Error())
			return
		}
		defer f.Close()

		cases, err := sheet.ParseCases(f)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		accept(c, o, cases, c.PostForm("cdp_url"))
	}
}

func accept(c *gin.Context, o *jobs.Orchestrator, cases []models.CaseQuery, cdpURL string) {
	job, err := o.Submit(c.Request.Context(), cases, cdpURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.JobAccepted{
		JobID:  job.ID,
		Status: job.Status,
		Total:  len(job.Cases),
	})
}

// GetJob returns a handler for GET /api/v1/jobs/:id.
func GetJob(registry *jobs.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := registry.Get(c.Param("id"))
		if !ok {
			respondError(c, models.NewError(models.ErrCodeNotFound, "job not found", nil))
			return
		}
		c.JSON(http.StatusOK, models.JobStatusResponse{
			ID:        job.ID,
			Status:    job.Status,
			Total:     len(job.Cases),
			Results:   job.Results,
			Error:     job.Error,
			CreatedAt: job.CreatedAt,
			UpdatedAt: job.UpdatedAt,
		})
	}
}
