package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/http/middleware"
	"github.com/rentloop/auth-service/internal/usecase"
)

// maxDocumentSize bounds a single uploaded document.
const maxDocumentSize = 10 << 20

type profileUsecaser interface {
	Completion(ctx context.Context, user *domain.User) domain.Completion
	AttachDocument(ctx context.Context, user *domain.User, kind, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type ProfileHandler struct {
	profiles profileUsecaser
	logger   *slog.Logger
}

func NewProfileHandler(profiles profileUsecaser, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.With("component", "profile_handler"),
	}
}

// GET /profile/completion
func (h *ProfileHandler) Completion(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, h.profiles.Completion(c.Request.Context(), user))
}

// POST /profile/documents/:kind
// Multipart upload with a single "file" part.
func (h *ProfileHandler) UploadDocument(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file part"})
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	defer file.Close()

	objectName, err := h.profiles.AttachDocument(
		c.Request.Context(),
		user,
		c.Param("kind"),
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownDocumentKind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errUnknownDocument})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "attach document", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"object": objectName})
}
