package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProductUpdate carries the catalog fields an admin may change. Stock only
// moves through approved transactions.
type ProductUpdate struct {
	ProductName        *string          `json:"product_name,omitempty" validate:"omitempty,min=1"`
	ProductDescription *string          `json:"product_description,omitempty"`
	CostPrice          *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice       *decimal.Decimal `json:"selling_price,omitempty"`
	CategoryID         *uuid.UUID       `json:"category_id,omitempty"`
}

// InventoryService manages the directory: products per location, locations,
// companies and categories.
type InventoryService interface {
	CreateProduct(ctx context.Context, p Principal, req *model.Product) error
	UpdateProduct(ctx context.Context, p Principal, id uuid.UUID, req ProductUpdate) (*model.Product, error)
	GetAllProducts(ctx context.Context, locationID *uuid.UUID) ([]model.Product, error)
	CreateLocation(ctx context.Context, p Principal, req *model.Location) error
	GetAllLocations(ctx context.Context) ([]model.Location, error)
	CreateCompany(ctx context.Context, p Principal, req *model.Company) error
	GetAllCompanies(ctx context.Context) ([]model.Company, error)
	CreateCategory(ctx context.Context, p Principal, req *model.Category) error
	GetAllCategories(ctx context.Context) ([]model.Category, error)
}

type inventoryService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	companyRepo  repository.CompanyRepository
	categoryRepo repository.CategoryRepository
	events       EventPublisher
	log          logrus.FieldLogger
}

func NewInventoryService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	lRepo repository.LocationRepository,
	cRepo repository.CompanyRepository,
	catRepo repository.CategoryRepository,
	events EventPublisher,
	log logrus.FieldLogger,
) InventoryService {
	return &inventoryService{
		db:           db,
		productRepo:  pRepo,
		locationRepo: lRepo,
		companyRepo:  cRepo,
		categoryRepo: catRepo,
		events:       events,
		log:          log.WithField("module", "inventory"),
	}
}

func (s *inventoryService) publish(event string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(event, payload)
	}
}

func productEvent(p *model.Product, actor Principal) map[string]interface{} {
	return map[string]interface{}{
		"product": map[string]interface{}{
			"id":           p.ID,
			"item_code":    p.ItemCode,
			"product_name": p.ProductName,
			"location_id":  p.LocationID,
			"stock":        p.Stock,
		},
		"user": map[string]interface{}{
			"id":    actor.UserID,
			"name":  actor.Name,
			"email": actor.Email,
		},
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, p Principal, req *model.Product) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	req.ItemCode = strings.TrimSpace(req.ItemCode)
	if err := validateRequest(req); err != nil {
		return err
	}
	if req.Stock < 0 {
		return invalidField("stock", "must not be negative")
	}
	if err := checkPrice("cost_price", &req.CostPrice); err != nil {
		return err
	}
	if err := checkPrice("selling_price", &req.SellingPrice); err != nil {
		return err
	}
	if _, err := s.locationRepo.FindByID(ctx, req.LocationID); err != nil {
		return fromRepo(err, "location", req.LocationID)
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			return fromRepo(err, "category", *req.CategoryID)
		}
	}

	existing, err := s.productRepo.FindByItemCodeAndLocation(ctx, req.ItemCode, req.LocationID)
	if err == nil && existing != nil {
		return fmt.Errorf("%w: item code %s already exists at this location", ErrConflict, req.ItemCode)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalErr(err)
	}

	req.ID = uuid.Nil
	req.StampCreated(p.actor())
	if err := s.productRepo.Create(ctx, req); err != nil {
		return fromRepo(err, "product", req.ID)
	}

	s.log.WithFields(logrus.Fields{"product_id": req.ID, "item_code": req.ItemCode, "actor": p.UserID}).Info("product created")
	s.publish(EventProductCreated, productEvent(req, p))
	return nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, p Principal, id uuid.UUID, req ProductUpdate) (*model.Product, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	if err := checkPrice("cost_price", req.CostPrice); err != nil {
		return nil, err
	}
	if err := checkPrice("selling_price", req.SellingPrice); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			return nil, fromRepo(err, "category", *req.CategoryID)
		}
	}

	var updated *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		existing, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "product", id)
		}

		if req.ProductName != nil {
			existing.ProductName = *req.ProductName
		}
		if req.ProductDescription != nil {
			existing.ProductDescription = *req.ProductDescription
		}
		if req.CostPrice != nil {
			existing.CostPrice = *req.CostPrice
		}
		if req.SellingPrice != nil {
			existing.SellingPrice = *req.SellingPrice
		}
		if req.CategoryID != nil {
			categoryID := *req.CategoryID
			existing.CategoryID = &categoryID
		}
		existing.UpdatedBy = p.actor()

		if err := products.Update(ctx, existing); err != nil {
			return fromRepo(err, "product", id)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, internalErr(err)
	}

	s.publish(EventProductUpdated, productEvent(updated, p))
	return updated, nil
}

func (s *inventoryService) GetAllProducts(ctx context.Context, locationID *uuid.UUID) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx, locationID)
	return products, internalErr(err)
}

func (s *inventoryService) CreateLocation(ctx context.Context, p Principal, req *model.Location) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	if req.IsHeadquarters {
		if _, err := s.locationRepo.FindHeadquarters(ctx); err == nil {
			return fmt.Errorf("%w: a headquarters location already exists", ErrConflict)
		}
	}
	req.ID = uuid.Nil
	req.StampCreated(p.actor())
	return fromRepo(s.locationRepo.Create(ctx, req), "location", req.ID)
}

func (s *inventoryService) GetAllLocations(ctx context.Context) ([]model.Location, error) {
	locations, err := s.locationRepo.FindAll(ctx)
	return locations, internalErr(err)
}

func (s *inventoryService) CreateCompany(ctx context.Context, p Principal, req *model.Company) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	req.ID = uuid.Nil
	req.StampCreated(p.actor())
	return fromRepo(s.companyRepo.Create(ctx, req), "company", req.ID)
}

func (s *inventoryService) GetAllCompanies(ctx context.Context) ([]model.Company, error) {
	companies, err := s.companyRepo.FindAll(ctx)
	return companies, internalErr(err)
}

func (s *inventoryService) CreateCategory(ctx context.Context, p Principal, req *model.Category) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	req.ID = uuid.Nil
	req.StampCreated(p.actor())
	return fromRepo(s.categoryRepo.Create(ctx, req), "category", req.ID)
}

func (s *inventoryService) GetAllCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	return categories, internalErr(err)
}
