package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/middleware"
	"github.com/justsurfingit/jobboard/internal/services"
)

const resumeDir = "resumes"

type ApplicationHandler struct {
	Applications   *services.ApplicationService
	MediaRoot      string
	MaxUploadBytes int64
	Log            logrus.FieldLogger
}

func NewApplicationHandler(apps *services.ApplicationService, mediaRoot string, maxUpload int64, log logrus.FieldLogger) *ApplicationHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ApplicationHandler{Applications: apps, MediaRoot: mediaRoot, MaxUploadBytes: maxUpload, Log: log}
}

func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.Applications.List(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewApplicationResponses(apps))
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	app, err := h.Applications.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewApplicationResponse(app))
}

// Create accepts JSON with a resume reference or a multipart form with the
// resume file under "resume".
func (h *ApplicationHandler) Create(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	// Reject before touching the upload.
	if !authorized(c, authz.ResourceApplication, authz.ActionCreate) {
		return
	}

	var req dtos.ApplicationRequest
	var stored string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
		ref, dst, err := h.saveResume(c)
		if err != nil {
			respondError(c, err)
			return
		}
		req.Resume, stored = ref, dst
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	app, err := h.Applications.Create(c.Request.Context(), p, &req)
	if err != nil {
		if stored != "" {
			if rmErr := os.Remove(stored); rmErr != nil {
				h.Log.WithError(rmErr).WithField("path", stored).Warn("failed to remove orphaned resume")
			}
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewApplicationResponse(app))
}

// saveResume writes the uploaded file under MediaRoot and returns the
// reference stored on the application plus the path on disk.
func (h *ApplicationHandler) saveResume(c *gin.Context) (string, string, error) {
	file, err := c.FormFile("resume")
	if err != nil {
		return "", "", apperr.Validation("invalid request", map[string]string{"resume": "this field is required"})
	}
	if h.MaxUploadBytes > 0 && file.Size > h.MaxUploadBytes {
		return "", "", apperr.Validation("invalid request", map[string]string{"resume": "file is too large"})
	}
	ref := path.Join(resumeDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	dst := filepath.Join(h.MediaRoot, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", "", apperr.Internal("failed to prepare media directory", err)
	}
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", "", apperr.Internal("failed to store resume", err)
	}
	return ref, dst, nil
}

// Update only changes status; everything else about an application is
// fixed once filed.
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p := middleware.PrincipalFrom(c)
	if err := h.Applications.Check(c.Request.Context(), p, authz.ActionUpdate, id); err != nil {
		respondError(c, err)
		return
	}
	var req dtos.ApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	app, err := h.Applications.UpdateStatus(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewApplicationResponse(app))
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.Applications.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
