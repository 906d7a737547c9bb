// Package api exposes brand analysis over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/storelens/storelens/internal/analysis"
	"github.com/storelens/storelens/internal/logger"
	"github.com/storelens/storelens/internal/store"
)

var validate = validator.New()

// Server is the HTTP front end over the analysis orchestrator.
type Server struct {
	orchestrator *analysis.Orchestrator
	store        store.Store
	router       *gin.Engine
}

// NewServer wires the routes.
func NewServer(orchestrator *analysis.Orchestrator, st store.Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		orchestrator: orchestrator,
		store:        st,
		router:       gin.New(),
	}
	s.router.Use(gin.Recovery())

	api := s.router.Group("/api")
	api.POST("/analyze", s.analyze)
	api.GET("/brands", s.listBrands)
	api.GET("/brand/:id", s.getBrand)
	api.DELETE("/brand/:id", s.deleteBrand)
	api.GET("/health", s.health)

	return s
}

// Handler returns the router for use by an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type analyzeRequest struct {
	WebsiteURL         string `json:"website_url"`
	IncludeCompetitors bool   `json:"include_competitors"`
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.WebsiteURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: website_url"})
		return
	}

	// Accept bare domains the way the analysis flow does, but reject
	// anything that is not a usable URL once scheme-qualified.
	candidate := req.WebsiteURL
	if err := validate.Var(candidate, "http_url"); err != nil {
		if err := validate.Var("https://"+candidate, "http_url"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid website URL"})
			return
		}
	}

	run, err := s.orchestrator.AnalyzeBrand(c.Request.Context(), req.WebsiteURL, req.IncludeCompetitors)
	if err != nil {
		logger.Error("analysis failed", "url", req.WebsiteURL, "error", err)
		payload := gin.H{"error": err.Error()}
		if run != nil && run.BrandID != "" {
			payload["brand_id"] = run.BrandID
		}
		c.JSON(http.StatusInternalServerError, payload)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"brand_id":             run.BrandID,
		"brand_data":           run.Brand,
		"products":             run.Products,
		"competitors":          run.Competitors,
		"competitive_analysis": run.CompetitiveReport,
	})
}

func (s *Server) listBrands(c *gin.Context) {
	brands, err := s.store.ListBrands(c.Request.Context())
	if err != nil {
		logger.Error("failed to list brands", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve brands"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"brands":  brands,
		"count":   len(brands),
	})
}

func (s *Server) getBrand(c *gin.Context) {
	run, analyses, err := s.orchestrator.GetBrandAnalysis(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "brand not found"})
		return
	}
	if err != nil {
		logger.Error("failed to get brand", "brand_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve brand"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"brand":       run.Brand,
			"products":    run.Products,
			"competitors": run.Competitors,
			"analyses":    analyses,
		},
	})
}

func (s *Server) deleteBrand(c *gin.Context) {
	err := s.store.DeleteBrand(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "brand not found"})
		return
	}
	if err != nil {
		logger.Error("failed to delete brand", "brand_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete brand"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "brand deleted successfully",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
