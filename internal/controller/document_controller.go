package controller

import (
	"errors"

	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/pkg/serverutils"
	"ai-finance-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("", c.Ingest)
}

// Ingest queues a document; indexing happens in the background consumer.
func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.documentService.Enqueue(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrIngestionDisabled) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	out := serverutils.SuccessResponse("Document queued for indexing", res)
	out.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(out)
}
