package http

import (
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/pkg/utils"
	"net/http"

	"github.com/labstack/echo/v4"
)

type listJobsRequest struct {
	Active       *bool `query:"active"`
	HistoryLimit int   `query:"history_limit" validate:"omitempty,min=1,max=100"`
}

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	jobs := base.Group("/jobs")
	auth := h.requireAuth()
	jobs.GET("", h.listJobs, auth)
	jobs.POST("/run", h.runJobs, auth)
	jobs.POST("/:id/run", h.runJob, auth)
}

func (h *HttpAPIHandler) listJobs(c echo.Context) error {
	req := new(listJobsRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	param := model.GetJobParam{IsActive: req.Active}
	if req.HistoryLimit > 0 {
		param.WithTaskHistory = &model.GetTaskExecutionHistoryParam{Limit: utils.ToPointer(req.HistoryLimit)}
	}
	jobs, err := h.service.SchedulerService.GetJobSchedule(c.Request().Context(), param)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Jobs retrieved", jobs))
}

// runJobs starts every due schedule, the same pass the in-process ticker makes.
func (h *HttpAPIHandler) runJobs(c echo.Context) error {
	started, err := h.service.SchedulerService.Execute(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Start running jobs", map[string]int{"started": started}))
}

func (h *HttpAPIHandler) runJob(c echo.Context) error {
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.service.SchedulerService.RunJobTask(c.Request().Context(), jobID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Job executed", result))
}
