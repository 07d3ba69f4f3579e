package controllers

import (
	"fmt"

	"esa-billing-backend/database"
	"esa-billing-backend/middlewares"
	"esa-billing-backend/models"
	"esa-billing-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	HSNCode     string  `json:"hsn_code" validate:"required"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	HSNCode     *string  `json:"hsn_code"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
}

// CreateProducts accepts a batch so the product catalog can be loaded in
// one request.
func CreateProducts(c *fiber.Ctx) error {
	var inputs []ProductInput
	if err := c.BodyParser(&inputs); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if len(inputs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no products supplied")
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var created []models.Product
	for i := range inputs {
		// Slice elements are validated one by one; the shared validator
		// rejects the whole batch on the first bad row.
		if err := middlewares.ValidateStruct(&inputs[i]); err != nil {
			return err
		}
		utils.NormalizeDTO(&inputs[i])

		product := models.Product{
			Name:        inputs[i].Name,
			Description: inputs[i].Description,
			HSNCode:     inputs[i].HSNCode,
			UnitPrice:   inputs[i].UnitPrice,
			Active:      true,
		}
		if err := db.Create(&product).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{
				"message": fmt.Sprintf("Could not create product at index %d", i),
				"error":   err.Error(),
			})
		}
		created = append(created, product)
	}

	return c.Status(201).JSON(created)
}

func GetProducts(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var products []models.Product
	if err := db.Order("name").Find(&products).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list products")
	}
	return c.JSON(fiber.Map{
		"products": products,
		"message":  "success",
	})
}

func UpdateProduct(c *fiber.Ctx) error {
	var patch ProductPatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&patch)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	updates := utils.UpdatesFromPtrDTO(&patch, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	res := db.Model(&models.Product{}).Where("id = ?", c.Params("id")).Updates(updates)
	if res.Error != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update product",
			"error":   res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	var product models.Product
	db.Where("id = ?", c.Params("id")).First(&product)
	return c.JSON(product)
}
