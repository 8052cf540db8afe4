package repository

import (
	"context"

	"go-inventory-procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository interface {
	WithTx(tx *gorm.DB) LocationRepository
	Create(ctx context.Context, location *model.Location) error
	FindAll(ctx context.Context) ([]model.Location, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	FindHeadquarters(ctx context.Context) (*model.Location, error)
}

type locationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db}
}

func (r *locationRepo) WithTx(tx *gorm.DB) LocationRepository {
	return &locationRepo{tx}
}

func (r *locationRepo) Create(ctx context.Context, location *model.Location) error {
	return translate(r.db.WithContext(ctx).Create(location).Error)
}

func (r *locationRepo) FindAll(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).Order("location_name ASC").Find(&locations).Error
	return locations, translate(err)
}

func (r *locationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var location model.Location
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &location, nil
}

func (r *locationRepo) FindHeadquarters(ctx context.Context) (*model.Location, error) {
	var location model.Location
	if err := r.db.WithContext(ctx).Where("is_headquarters = ?", true).First(&location).Error; err != nil {
		return nil, translate(err)
	}
	return &location, nil
}

type CompanyRepository interface {
	WithTx(tx *gorm.DB) CompanyRepository
	Create(ctx context.Context, company *model.Company) error
	FindAll(ctx context.Context) ([]model.Company, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) WithTx(tx *gorm.DB) CompanyRepository {
	return &companyRepo{tx}
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return translate(r.db.WithContext(ctx).Create(company).Error)
}

func (r *companyRepo) FindAll(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := r.db.WithContext(ctx).Order("company_name ASC").Find(&companies).Error
	return companies, translate(err)
}

func (r *companyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("category_name ASC").Find(&categories).Error
	return categories, translate(err)
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}
