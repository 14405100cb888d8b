package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type CatalogController struct {
	Catalog services.CatalogReader
}

func NewCatalogController(catalog services.CatalogReader) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

func (cc *CatalogController) ListPackages(c *gin.Context) {
	packages, err := cc.Catalog.ListActivePackages(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of buffet packages", packages)
}

func (cc *CatalogController) GetPackage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pkg, err := cc.Catalog.GetPackage(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet package detail", pkg)
}

func (cc *CatalogController) ListServices(c *gin.Context) {
	list, err := cc.Catalog.ListActiveServices(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of services", list)
}

func (cc *CatalogController) GetService(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	svc, err := cc.Catalog.GetService(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Service detail", svc)
}
