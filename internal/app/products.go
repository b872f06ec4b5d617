package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/osanchezal/inventory-checkout-system/api"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
)

func (app *Application) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input api.CreateProductRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	purchaseDate := time.Now()
	if input.PurchaseDate != nil {
		purchaseDate = *input.PurchaseDate
	}

	product := domain.Product{
		OwnerID:      app.contextGetUserId(r),
		Name:         input.Name,
		Quantity:     input.Quantity,
		CurrentPrice: input.Price,
		Unit:         input.Unit,
		PurchaseDate: purchaseDate,
	}

	err = app.productRepo.Create(r.Context(), &product)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toProductResponse(product), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := app.productRepo.GetAllByOwner(r.Context(), app.contextGetUserId(r))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.ProductResponse, len(products))
	for i, product := range products {
		resp[i] = toProductResponse(product)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetProduct(w http.ResponseWriter, r *http.Request) {
	productId, err := app.readIDParam(r, "productId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.productRepo.GetById(r.Context(), app.contextGetUserId(r), productId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toProductResponse(*product), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productId, err := app.readIDParam(r, "productId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdateProductRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	ownerId := app.contextGetUserId(r)

	product, err := app.productRepo.GetById(r.Context(), ownerId, productId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	product.Name = input.Name
	product.Quantity = input.Quantity
	product.Unit = input.Unit
	if input.PurchaseDate != nil {
		product.PurchaseDate = *input.PurchaseDate
	}

	err = app.productRepo.Update(r.Context(), product)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toProductResponse(*product), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productId, err := app.readIDParam(r, "productId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.productRepo.Delete(r.Context(), app.contextGetUserId(r), productId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) UpdateProductPrice(w http.ResponseWriter, r *http.Request) {
	productId, err := app.readIDParam(r, "productId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdatePriceRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.productRepo.UpdatePrice(r.Context(), app.contextGetUserId(r), productId, input.Price)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	productId, err := app.readIDParam(r, "productId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	entries, err := app.productRepo.GetPriceHistory(r.Context(), app.contextGetUserId(r), productId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.PriceHistoryEntryResponse, len(entries))
	for i, entry := range entries {
		resp[i] = api.PriceHistoryEntryResponse{
			Price:     entry.Price,
			StartedAt: entry.StartedAt,
			EndedAt:   entry.EndedAt,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toProductResponse(product domain.Product) api.ProductResponse {
	return api.ProductResponse{
		Id:           product.ID,
		Name:         product.Name,
		Quantity:     product.Quantity,
		Price:        product.CurrentPrice,
		Unit:         product.Unit,
		PurchaseDate: product.PurchaseDate,
		Version:      product.Version,
	}
}
