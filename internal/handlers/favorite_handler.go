package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/middleware"
	"github.com/justsurfingit/jobboard/internal/services"
)

type FavoriteHandler struct {
	Favorites *services.FavoriteService
}

func NewFavoriteHandler(favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites}
}

func (h *FavoriteHandler) List(c *gin.Context) {
	favs, err := h.Favorites.List(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewFavoriteJobResponses(favs))
}

func (h *FavoriteHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	fav, err := h.Favorites.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewFavoriteJobResponse(fav))
}

func (h *FavoriteHandler) Create(c *gin.Context) {
	if !authorized(c, authz.ResourceFavorite, authz.ActionCreate) {
		return
	}
	var req dtos.FavoriteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	fav, err := h.Favorites.Create(c.Request.Context(), middleware.PrincipalFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewFavoriteJobResponse(fav))
}

func (h *FavoriteHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p := middleware.PrincipalFrom(c)
	if err := h.Favorites.Check(c.Request.Context(), p, authz.ActionUpdate, id); err != nil {
		respondError(c, err)
		return
	}
	var req dtos.FavoriteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	fav, err := h.Favorites.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewFavoriteJobResponse(fav))
}

func (h *FavoriteHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.Favorites.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
