package handler

import (
	"github.com/gofiber/fiber/v2"

	"wara/internal/model"
	"wara/internal/service"
)

// createReportRequest is the JSON body of POST /reports.
type createReportRequest struct {
	ComparisonID string               `json:"comparison_id"`
	Format       string               `json:"format"`
	Title        string               `json:"title"`
	Options      *model.ReportOptions `json:"options"`
}

// CreateReport requests a report artifact for a completed comparison.
func CreateReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createReportRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		rep, err := svc.Create(c.UserContext(), service.CreateReportInput{
			ComparisonID: req.ComparisonID,
			Format:       model.ReportFormat(req.Format),
			Title:        req.Title,
			Options:      req.Options,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(rep)
	}
}

// ListReports handles paginated report listing.
func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := parsePage(c)
		if err != nil {
			return err
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetReport returns one report by ID.
func GetReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		rep, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(rep)
	}
}

// DownloadReport returns a presigned URL for the rendered artifact.
func DownloadReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		url, err := svc.DownloadURL(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// DeleteReport removes a report.
func DeleteReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
