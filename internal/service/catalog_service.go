package service

import (
	"storefront-backend/internal/models"
	"storefront-backend/internal/repository"
)

// CatalogService exposes the read-only product catalog.
type CatalogService struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) List() []models.Product {
	return s.repo.GetAll()
}

func (s *CatalogService) Get(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}
