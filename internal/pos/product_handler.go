package pos

import (
	"strings"

	"barpos-backend/internal/cache"
	"barpos-backend/internal/database"
	"barpos-backend/internal/models"
	"barpos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type RecipeComponentRequest struct {
	ComponentProductID uint    `json:"component_product_id"` // zorunlu
	QuantityPerUnit    float64 `json:"quantity_per_unit"`    // zorunlu, > 0
	Unit               string  `json:"unit"`
}

type ProductRequest struct {
	Name            string                   `json:"name"` // zorunlu
	Code            string                   `json:"code"`
	Kind            string                   `json:"kind"` // SIMPLE veya COMPOSITE
	UnitPrice       float64                  `json:"unit_price"`
	UnitCost        float64                  `json:"unit_cost"`
	StockOnHand     float64                  `json:"stock_on_hand"`
	UnitsPerPackage float64                  `json:"units_per_package"`
	BaseUnit        string                   `json:"base_unit"`
	MinStock        float64                  `json:"min_stock"`
	Active          *bool                    `json:"active"`
	Recipe          []RecipeComponentRequest `json:"recipe"` // sadece COMPOSITE
}

type RecipeComponentResponse struct {
	ComponentProductID uint    `json:"component_product_id"`
	ComponentName      string  `json:"component_name"`
	QuantityPerUnit    float64 `json:"quantity_per_unit"`
	Unit               string  `json:"unit"`
}

type ProductResponse struct {
	ID              uint                      `json:"id"`
	Name            string                    `json:"name"`
	Code            string                    `json:"code"`
	Kind            string                    `json:"kind"`
	UnitPrice       float64                   `json:"unit_price"`
	UnitCost        float64                   `json:"unit_cost"`
	StockOnHand     float64                   `json:"stock_on_hand"`
	UnitsPerPackage float64                   `json:"units_per_package"`
	BaseUnit        string                    `json:"base_unit"`
	MinStock        float64                   `json:"min_stock"`
	Active          bool                      `json:"active"`
	AvailableUnits  int                       `json:"available_units"` // satılabilir adet (reçeteliyse malzemeden türetilir)
	LowStock        bool                      `json:"low_stock"`
	Recipe          []RecipeComponentResponse `json:"recipe,omitempty"`
}

func productToResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Code:            p.Code,
		Kind:            string(p.Kind),
		UnitPrice:       p.UnitPrice,
		UnitCost:        p.UnitCost,
		StockOnHand:     p.StockOnHand,
		UnitsPerPackage: p.UnitsPerPackage,
		BaseUnit:        p.BaseUnit,
		MinStock:        p.MinStock,
		Active:          p.Active,
		AvailableUnits:  stock.AvailableUnits(p),
	}
	resp.LowStock = p.MinStock > 0 && float64(resp.AvailableUnits) <= p.MinStock
	if p.Recipe != nil {
		for _, comp := range p.Recipe.Components {
			name := ""
			if comp.ComponentProduct != nil {
				name = comp.ComponentProduct.Name
			}
			resp.Recipe = append(resp.Recipe, RecipeComponentResponse{
				ComponentProductID: comp.ComponentProductID,
				ComponentName:      name,
				QuantityPerUnit:    comp.QuantityPerUnit,
				Unit:               comp.Unit,
			})
		}
	}
	return resp
}

func validateProductRequest(body *ProductRequest) error {
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Ürün adı zorunludur")
	}
	if body.UnitPrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
	}
	kind := models.ProductKind(body.Kind)
	if kind != models.ProductSimple && kind != models.ProductComposite {
		return fiber.NewError(fiber.StatusBadRequest, "kind SIMPLE veya COMPOSITE olmalı")
	}
	if kind == models.ProductSimple && len(body.Recipe) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "SIMPLE ürüne reçete tanımlanamaz")
	}
	for _, comp := range body.Recipe {
		if comp.ComponentProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "component_product_id zorunludur")
		}
		if comp.QuantityPerUnit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_per_unit 0'dan büyük olmalıdır")
		}
	}
	return nil
}

// refreshCache: ürün mutasyonlarından sonra yerel önbelleği veritabanından
// toptan tazeler.
func refreshCache(proj *cache.Projection) {
	var products []models.Product
	if err := database.DB.Preload("Recipe.Components.ComponentProduct").Find(&products).Error; err != nil {
		return
	}
	proj.ReplaceAll(products)
}

// replaceRecipe: ürünün reçetesini toptan değiştirir. Kısmi güncelleme yoktur;
// istemci her seferinde tam listeyi gönderir.
func replaceRecipe(productID uint, components []RecipeComponentRequest) error {
	var recipe models.Recipe
	err := database.DB.Where("product_id = ?", productID).First(&recipe).Error
	if err != nil {
		recipe = models.Recipe{ProductID: productID}
		if err := database.DB.Create(&recipe).Error; err != nil {
			return err
		}
	}

	if err := database.DB.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeComponent{}).Error; err != nil {
		return err
	}

	for _, comp := range components {
		row := models.RecipeComponent{
			RecipeID:           recipe.ID,
			ComponentProductID: comp.ComponentProductID,
			QuantityPerUnit:    comp.QuantityPerUnit,
			Unit:               comp.Unit,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Preload("Recipe.Components.ComponentProduct")

		if q := c.Query("q"); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
		}
		if c.Query("active") == "true" {
			query = query.Where("active = ?", true)
		}

		var products []models.Product
		if err := query.Order("name ASC").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		resp := make([]ProductResponse, 0, len(products))
		for i := range products {
			resp = append(resp, productToResponse(&products[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.Preload("Recipe.Components.ComponentProduct").
			First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		return c.JSON(productToResponse(&product))
	}
}

// POST /api/products
func CreateProductHandler(proj *cache.Projection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validateProductRequest(&body); err != nil {
			return err
		}

		active := true
		if body.Active != nil {
			active = *body.Active
		}
		upp := body.UnitsPerPackage
		if upp <= 0 {
			upp = 1
		}

		product := models.Product{
			Name:            body.Name,
			Code:            body.Code,
			Kind:            models.ProductKind(body.Kind),
			UnitPrice:       body.UnitPrice,
			UnitCost:        body.UnitCost,
			StockOnHand:     body.StockOnHand,
			UnitsPerPackage: upp,
			BaseUnit:        body.BaseUnit,
			MinStock:        body.MinStock,
			Active:          active,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		if product.Kind == models.ProductComposite && len(body.Recipe) > 0 {
			if err := replaceRecipe(product.ID, body.Recipe); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Reçete kaydedilemedi")
			}
		}

		database.DB.Preload("Recipe.Components.ComponentProduct").First(&product, product.ID)
		refreshCache(proj)

		return c.Status(fiber.StatusCreated).JSON(productToResponse(&product))
	}
}

// PUT /api/products/:id
func UpdateProductHandler(proj *cache.Projection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validateProductRequest(&body); err != nil {
			return err
		}

		product.Name = body.Name
		product.Code = body.Code
		product.Kind = models.ProductKind(body.Kind)
		product.UnitPrice = body.UnitPrice
		product.UnitCost = body.UnitCost
		product.BaseUnit = body.BaseUnit
		product.MinStock = body.MinStock
		if body.UnitsPerPackage > 0 {
			product.UnitsPerPackage = body.UnitsPerPackage
		}
		if body.Active != nil {
			product.Active = *body.Active
		}
		// StockOnHand burada güncellenmez: stok yalnızca hareketlerle değişir.

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		if product.Kind == models.ProductComposite {
			if err := replaceRecipe(product.ID, body.Recipe); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Reçete kaydedilemedi")
			}
		}

		database.DB.Preload("Recipe.Components.ComponentProduct").First(&product, product.ID)
		refreshCache(proj)

		return c.JSON(productToResponse(&product))
	}
}

// DELETE /api/products/:id — satış geçmişi korunur, ürün pasife çekilir.
func DeactivateProductHandler(proj *cache.Projection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		product.Active = false
		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün pasife çekilemedi")
		}

		refreshCache(proj)

		return c.JSON(fiber.Map{"message": "Ürün pasife çekildi"})
	}
}
