package handler

import (
	"github.com/gofiber/fiber/v2"

	"wara/internal/model"
	"wara/internal/service"
)

// createComparisonRequest is the JSON body of POST /comparisons.
type createComparisonRequest struct {
	Title              string                 `json:"title"`
	BaseDocumentID     string                 `json:"base_document_id"`
	ComparedDocumentID string                 `json:"compared_document_id"`
	AnalysisType       string                 `json:"analysis_type"`
	Options            *compareOptionsRequest `json:"options"`
}

// compareOptionsRequest uses pointer fields so a partial options object only
// overrides the keys it actually carries.
type compareOptionsRequest struct {
	IncludeTextChanges      *bool `json:"include_text_changes"`
	IncludeTableChanges     *bool `json:"include_table_changes"`
	IncludeStructureChanges *bool `json:"include_structure_changes"`
	MinChangeLength         *int  `json:"min_change_length"`
}

// merge applies the supplied keys over the default comparison options.
func (r *compareOptionsRequest) merge() *model.CompareOptions {
	opts := model.DefaultCompareOptions()
	if r == nil {
		return &opts
	}
	if r.IncludeTextChanges != nil {
		opts.IncludeTextChanges = *r.IncludeTextChanges
	}
	if r.IncludeTableChanges != nil {
		opts.IncludeTableChanges = *r.IncludeTableChanges
	}
	if r.IncludeStructureChanges != nil {
		opts.IncludeStructureChanges = *r.IncludeStructureChanges
	}
	if r.MinChangeLength != nil {
		opts.MinChangeLength = *r.MinChangeLength
	}
	return &opts
}

// CreateComparison starts a comparison between two processed documents.
func CreateComparison(svc service.ComparisonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createComparisonRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		cmp, err := svc.Create(c.UserContext(), service.CreateComparisonInput{
			Title:              req.Title,
			BaseDocumentID:     req.BaseDocumentID,
			ComparedDocumentID: req.ComparedDocumentID,
			AnalysisType:       model.AnalysisType(req.AnalysisType),
			Options:            req.Options.merge(),
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(cmp)
	}
}

// ListComparisons handles paginated comparison listing.
func ListComparisons(svc service.ComparisonService) fiber.Handler {
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

// GetComparison returns one comparison by ID.
func GetComparison(svc service.ComparisonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		cmp, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(cmp)
	}
}

// ListComparisonChanges returns a page of a comparison's detected changes.
// The optional type query param filters by change type.
func ListComparisonChanges(svc service.ComparisonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		limit, offset, err := parsePage(c)
		if err != nil {
			return err
		}

		res, err := svc.Changes(c.UserContext(), id, model.ChangeType(c.Query("type")), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// DeleteComparison removes a comparison and its changes.
func DeleteComparison(svc service.ComparisonService) fiber.Handler {
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
