package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"postgate/internal/entity"
	"postgate/internal/usecase"
	"postgate/pkg/logger"
)

type PostHandler struct {
	publishUseCase usecase.PublishUseCase
	logger         *logger.Logger
}

func NewPostHandler(publishUseCase usecase.PublishUseCase, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		publishUseCase: publishUseCase,
		logger:         logger,
	}
}

// PublishPost godoc
// @Summary      Publish a post
// @Description  Dispatch a platform-agnostic post to the target platform. Errors are returned as data with transport status 200.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request body entity.PostRequest true "Post request"
// @Success      200  {object}  entity.Envelope
// @Router       /posts [post]
func (h *PostHandler) PublishPost(c *gin.Context) {
	var req entity.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, entity.NewErrorEnvelope(&entity.ErrorResult{
			Code:      entity.CodeValidation,
			Message:   err.Error(),
			RequestID: uuid.New().String(),
		}))
		return
	}

	// The request context carries the client-disconnect signal through
	// every layer down to the outbound call.
	envelope := h.publishUseCase.Publish(c.Request.Context(), &req)
	c.JSON(http.StatusOK, envelope)
}

// PreviewPost godoc
// @Summary      Preview a post
// @Description  Validate a post and report what would be sent, without publishing.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request body entity.PostRequest true "Post request"
// @Success      200  {object}  entity.Envelope
// @Router       /posts/preview [post]
func (h *PostHandler) PreviewPost(c *gin.Context) {
	var req entity.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, entity.NewPreviewErrorEnvelope(&entity.PreviewData{
			Errors:   []string{err.Error()},
			Warnings: []string{},
		}))
		return
	}

	envelope := h.publishUseCase.Preview(c.Request.Context(), &req)
	c.JSON(http.StatusOK, envelope)
}
