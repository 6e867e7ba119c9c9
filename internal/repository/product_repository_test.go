package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storefront-backend/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultCatalog(t *testing.T) {
	repo, err := NewProductRepository(DefaultProducts())
	if err != nil {
		t.Fatalf("NewProductRepository returned error: %v", err)
	}

	products := repo.GetAll()
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}
	if products[0].ID != "prod_1" || products[5].ID != "prod_6" {
		t.Fatalf("expected catalog order to be preserved, got %s..%s", products[0].ID, products[5].ID)
	}

	product, err := repo.GetByID("prod_2")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if product.Price != 12800 {
		t.Fatalf("expected prod_2 price 12800, got %d", product.Price)
	}
}

func TestGetByIDUnknownProduct(t *testing.T) {
	repo, _ := NewProductRepository(DefaultProducts())

	if _, err := repo.GetByID("prod_404"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalogIsReadOnly(t *testing.T) {
	repo, _ := NewProductRepository(DefaultProducts())

	products := repo.GetAll()
	products[0].Price = 1

	product, _ := repo.GetByID("prod_1")
	product.Name = "changed"

	again, _ := repo.GetByID("prod_1")
	if again.Price != 3980 || again.Name == "changed" {
		t.Fatalf("expected catalog to be unaffected by caller mutation, got %+v", again)
	}
}

func TestNewProductRepositoryRejectsDuplicates(t *testing.T) {
	_, err := NewProductRepository([]models.Product{{ID: "a", Name: "A", Price: 1}, {ID: "a", Name: "B", Price: 2}})
	if err == nil {
		t.Fatalf("expected duplicate ids to be rejected")
	}
}

func TestLoadProductsFileYAML(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
- id: mug_1
  name: "<b>Coffee mug</b>"
  price: 1500
  image: https://example.com/mug.jpg
  description: Stoneware
- id: cap_1
  name: Cap
  price: 2200
`)

	products, err := LoadProductsFile(path)
	if err != nil {
		t.Fatalf("LoadProductsFile returned error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Name != "Coffee mug" {
		t.Fatalf("expected markup stripped from name, got %q", products[0].Name)
	}
	if products[1].Price != 2200 {
		t.Fatalf("unexpected price %d", products[1].Price)
	}
}

func TestLoadProductsFileJSON(t *testing.T) {
	path := writeFile(t, "catalog.json", `[{"id":"book_1","name":"Book","price":990}]`)

	products, err := LoadProductsFile(path)
	if err != nil {
		t.Fatalf("LoadProductsFile returned error: %v", err)
	}
	if len(products) != 1 || products[0].ID != "book_1" {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestLoadProductsFileRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"zero price":  `[{"id":"x","name":"X","price":0}]`,
		"missing id":  `[{"name":"X","price":10}]`,
		"bad id":      `[{"id":"x y","name":"X","price":10}]`,
		"empty name":  `[{"id":"x","name":"<i></i>","price":10}]`,
		"bad image":   `[{"id":"x","name":"X","price":10,"image":"javascript:alert(1)"}]`,
		"empty":       `[]`,
		"not a array": `{"id":"x"}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "catalog.json", content)
			if _, err := LoadProductsFile(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}
