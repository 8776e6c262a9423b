package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/adapter"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/logging"
)

// Compile-time check
var _ ProductUseCase = (*productUC)(nil)

// Upload is one multipart part handed down from the admin handler.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// ProductUseCase is the product catalog plus admin CRUD with file uploads.
type ProductUseCase interface {
	List(ctx context.Context) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, name, planID string, file, image *Upload) (*model.Product, error)
	Update(ctx context.Context, id, name, planID string, file, image *Upload) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

type productUC struct {
	products repository.ProductRepository
	plans    repository.SubscriptionPlanRepository
	files    adapter.FileStore
	log      *zerolog.Logger
}

func NewProductUseCase(
	products repository.ProductRepository,
	plans repository.SubscriptionPlanRepository,
	files adapter.FileStore,
	logger *zerolog.Logger,
) *productUC {
	return &productUC{products: products, plans: plans, files: files, log: logger}
}

func (uc *productUC) List(ctx context.Context) ([]*model.Product, error) {
	return uc.products.ListAll(ctx, repository.NoTX)
}

func (uc *productUC) Get(ctx context.Context, id string) (*model.Product, error) {
	return uc.products.FindByID(ctx, repository.NoTX, id)
}

func (uc *productUC) Create(ctx context.Context, name, planID string, file, image *Upload) (*model.Product, error) {
	defer logging.TraceDuration(uc.log, "ProductUC.Create")()

	// the plan must exist; a dangling plan id would make the product
	// undownloadable for everyone
	if _, err := uc.plans.FindByID(ctx, repository.NoTX, planID); err != nil {
		return nil, err
	}

	product, err := model.NewProduct(uuid.NewString(), name, planID)
	if err != nil {
		return nil, err
	}
	if err := uc.attach(ctx, product, file, image); err != nil {
		return nil, err
	}
	if err := uc.products.Save(ctx, repository.NoTX, product); err != nil {
		uc.discardFiles(ctx, product)
		return nil, err
	}

	uc.log.Info().Str("product_id", product.ID).Str("name", name).Msg("product created")
	return product, nil
}

func (uc *productUC) Update(ctx context.Context, id, name, planID string, file, image *Upload) (*model.Product, error) {
	defer logging.TraceDuration(uc.log, "ProductUC.Update")()

	product, err := uc.products.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		product.Name = name
	}
	if planID != "" {
		if _, err := uc.plans.FindByID(ctx, repository.NoTX, planID); err != nil {
			return nil, err
		}
		product.PlanID = planID
	}

	oldFile, oldImage := product.FilePath, product.ImagePath
	if err := uc.attach(ctx, product, file, image); err != nil {
		return nil, err
	}
	if err := uc.products.Save(ctx, repository.NoTX, product); err != nil {
		return nil, err
	}

	// replaced uploads are removed only after the row is saved
	if file != nil && oldFile != "" && oldFile != product.FilePath {
		_ = uc.files.Remove(ctx, oldFile)
	}
	if image != nil && oldImage != "" && oldImage != product.ImagePath {
		_ = uc.files.Remove(ctx, oldImage)
	}
	return product, nil
}

func (uc *productUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(uc.log, "ProductUC.Delete")()

	product, err := uc.products.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if err := uc.products.Delete(ctx, repository.NoTX, id); err != nil {
		return err
	}
	uc.discardFiles(ctx, product)
	return nil
}

func (uc *productUC) attach(ctx context.Context, product *model.Product, file, image *Upload) error {
	if file != nil {
		key, err := uc.files.Put(ctx, file.Filename, file.Reader)
		if err != nil {
			return err
		}
		product.FilePath = key
		product.FileName = file.Filename
	}
	if image != nil {
		key, err := uc.files.Put(ctx, image.Filename, image.Reader)
		if err != nil {
			return err
		}
		product.ImagePath = key
	}
	return nil
}

func (uc *productUC) discardFiles(ctx context.Context, product *model.Product) {
	if product.FilePath != "" {
		_ = uc.files.Remove(ctx, product.FilePath)
	}
	if product.ImagePath != "" {
		_ = uc.files.Remove(ctx, product.ImagePath)
	}
}
