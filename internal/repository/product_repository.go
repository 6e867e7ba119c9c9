package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"storefront-backend/internal/models"
	"storefront-backend/pkg/validator"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	GetAll() []models.Product
	GetByID(id string) (*models.Product, error)
}

// productRepository is a read-only catalog held in memory.
type productRepository struct {
	products []models.Product
	byID     map[string]int
}

func NewProductRepository(products []models.Product) (ProductRepository, error) {
	repo := &productRepository{
		products: make([]models.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for _, product := range products {
		if _, exists := repo.byID[product.ID]; exists {
			return nil, fmt.Errorf("duplicate product id %q", product.ID)
		}
		repo.byID[product.ID] = len(repo.products)
		repo.products = append(repo.products, product)
	}

	return repo, nil
}

func (r *productRepository) GetAll() []models.Product {
	result := make([]models.Product, len(r.products))
	copy(result, r.products)
	return result
}

func (r *productRepository) GetByID(id string) (*models.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	product := r.products[i]
	return &product, nil
}

// DefaultProducts is the built-in demo catalog.
func DefaultProducts() []models.Product {
	return []models.Product{
		{
			ID:          "prod_1",
			Name:        "プレミアムTシャツ",
			Price:       3980,
			Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400",
			Description: "高品質コットン100%のプレミアムTシャツ",
		},
		{
			ID:          "prod_2",
			Name:        "ヴィンテージ風デニムパンツ",
			Price:       12800,
			Image:       "https://images.unsplash.com/photo-1576995853123-5a10305d93c0?w=400",
			Description: "ヴィンテージ風デニムパンツ",
		},
		{
			ID:          "prod_3",
			Name:        "レザースニーカー",
			Price:       8900,
			Image:       "https://images.unsplash.com/photo-1549298916-b41d501d3772?w=400",
			Description: "本革使用の高級スニーカー",
		},
		{
			ID:          "prod_4",
			Name:        "キャンバストートバッグ",
			Price:       4500,
			Image:       "https://images.unsplash.com/photo-1544816155-12df9643f363?w=400",
			Description: "大容量キャンバス素材トートバッグ",
		},
		{
			ID:          "prod_5",
			Name:        "ウールニットセーター",
			Price:       9800,
			Image:       "https://images.unsplash.com/photo-1576871337622-98d48d1cf531?w=400",
			Description: "柔らかなウール素材の暖かいセーター",
		},
		{
			ID:          "prod_6",
			Name:        "レザー・バックパック",
			Price:       5500,
			Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400",
			Description: "レザー・クラシックバックパック",
		},
	}
}

// LoadProductsFile reads a catalog from a YAML or JSON file. The format is
// chosen by extension; anything other than .json is parsed as YAML.
func LoadProductsFile(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var products []models.Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &products)
	default:
		err = yaml.Unmarshal(data, &products)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for i := range products {
		p := &products[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = validator.SanitizeString(p.Name)
		p.Description = validator.SanitizeString(p.Description)
		p.Image = strings.TrimSpace(p.Image)

		if !validator.IsProductID(p.ID) {
			return nil, fmt.Errorf("catalog entry %d has invalid id %q", i, p.ID)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("catalog entry %q has no name", p.ID)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("catalog entry %q has invalid price %d", p.ID, p.Price)
		}
		if p.Image != "" && !validator.ValidateURL(p.Image) {
			return nil, fmt.Errorf("catalog entry %q has invalid image url", p.ID)
		}
	}

	if len(products) == 0 {
		return nil, errors.New("catalog file contains no products")
	}

	return products, nil
}
