package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"wara/internal/llm"
)

// LLMStatusProvider is the slice of the Ollama client these handlers need.
type LLMStatusProvider interface {
	Available(ctx context.Context) bool
	Models(ctx context.Context) ([]llm.ModelInfo, error)
	Model() string
}

// LLMHealth reports whether the Ollama server is reachable.
func LLMHealth(client LLMStatusProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		available := client.Available(c.UserContext())
		status := fiber.StatusOK
		if !available {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"available": available,
			"model":     client.Model(),
		})
	}
}

// ListLLMModels lists the models installed on the Ollama server.
func ListLLMModels(client LLMStatusProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		models, err := client.Models(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "LLM_UNAVAILABLE", "inference server unavailable")
		}
		return c.JSON(fiber.Map{"data": models, "total": len(models)})
	}
}
