package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/config"
	"github.com/nurpe/freight-sync/internal/model"
	"github.com/nurpe/freight-sync/internal/repository"
)

type ExcelGenerator interface {
	Generate(export model.ContractExport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(export model.ContractExport) ([]byte, error)
}

// LocationResolver fetches location data from upstream; satisfied by
// SyncService.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, token string, id int64) (*model.Location, error)
}

// AdminService backs the administrative surface: handler setup and status,
// pricing and location CRUD, contract listing and exports.
type AdminService struct {
	handlers  *repository.HandlerRepository
	pricings  *repository.PricingRepository
	locations *repository.LocationRepository
	contracts *repository.ContractRepository
	resolver  LocationResolver
	excel     ExcelGenerator
	pdf       PDFGenerator
	cfg       *config.Config
}

func NewAdminService(
	handlers *repository.HandlerRepository,
	pricings *repository.PricingRepository,
	locations *repository.LocationRepository,
	contracts *repository.ContractRepository,
	resolver LocationResolver,
	excel ExcelGenerator,
	pdf PDFGenerator,
	cfg *config.Config,
) *AdminService {
	return &AdminService{
		handlers:  handlers,
		pricings:  pricings,
		locations: locations,
		contracts: contracts,
		resolver:  resolver,
		excel:     excel,
		pdf:       pdf,
		cfg:       cfg,
	}
}

// HandlerStatus is the admin view of the sync state.
type HandlerStatus struct {
	Handler       *model.ContractHandler `json:"handler"`
	OperationMode string                 `json:"operation_mode"`
	LastError     string                 `json:"last_error"`
	SyncOK        bool                   `json:"sync_ok"`
}

func (s *AdminService) HandlerStatus(ctx context.Context) (*HandlerStatus, error) {
	handler, err := s.handlers.Get(ctx)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNoHandler
	}
	if err != nil {
		return nil, err
	}
	return &HandlerStatus{
		Handler:       handler,
		OperationMode: handler.OperationMode.Friendly(),
		LastError:     handler.LastError.Message(),
		SyncOK:        handler.IsSyncOK(s.cfg.SyncGrace(), time.Now().UTC()),
	}, nil
}

type SetupHandlerInput struct {
	OrganizationID         int64               `json:"organization_id"`
	OrganizationName       string              `json:"organization_name"`
	CorporationID          int64               `json:"corporation_id"`
	CorporationName        string              `json:"corporation_name"`
	CharacterID            int64               `json:"character_id"`
	OperationMode          model.OperationMode `json:"operation_mode"`
	PricePerVolumeModifier *float64            `json:"price_per_volume_modifier"`
}

// SetupHandler creates or rebinds the contract handler. Changing the
// operation mode deletes the existing handler first, cascading to contracts
// and locations, because the scope of stored data no longer applies.
func (s *AdminService) SetupHandler(ctx context.Context, input SetupHandlerInput) (*model.ContractHandler, error) {
	if input.OrganizationID == 0 || input.CorporationID == 0 || input.CharacterID == 0 {
		return nil, fmt.Errorf("%w: organization_id, corporation_id and character_id are required", ErrInvalidInput)
	}
	if !input.OperationMode.Valid() {
		return nil, fmt.Errorf("%w: unknown operation mode %q", ErrInvalidInput, input.OperationMode)
	}

	existing, err := s.handlers.Get(ctx)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if existing != nil && existing.OperationMode != input.OperationMode {
		if err := s.handlers.Delete(ctx, existing.OrganizationID); err != nil {
			return nil, err
		}
	}

	handler := &model.ContractHandler{
		OrganizationID:         input.OrganizationID,
		OrganizationName:       input.OrganizationName,
		CorporationID:          input.CorporationID,
		CorporationName:        input.CorporationName,
		CharacterID:            input.CharacterID,
		OperationMode:          input.OperationMode,
		PricePerVolumeModifier: input.PricePerVolumeModifier,
	}
	if err := s.handlers.Save(ctx, handler); err != nil {
		return nil, err
	}
	return handler, nil
}

func (s *AdminService) ListPricings(ctx context.Context) ([]model.Pricing, error) {
	return s.pricings.List(ctx)
}

func (s *AdminService) GetPricing(ctx context.Context, id int64) (*model.Pricing, error) {
	pricing, err := s.pricings.Get(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	return pricing, err
}

func (s *AdminService) CreatePricing(ctx context.Context, pricing *model.Pricing) error {
	if err := s.validatePricing(ctx, pricing); err != nil {
		return err
	}
	return s.pricings.Create(ctx, pricing)
}

func (s *AdminService) UpdatePricing(ctx context.Context, pricing *model.Pricing) error {
	if _, err := s.pricings.Get(ctx, pricing.ID); err == gorm.ErrRecordNotFound {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if err := s.validatePricing(ctx, pricing); err != nil {
		return err
	}
	return s.pricings.Update(ctx, pricing)
}

func (s *AdminService) DeletePricing(ctx context.Context, id int64) error {
	err := s.pricings.Delete(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	return err
}

// validatePricing rejects configuration errors at write time so they never
// reach the compliance checker: the price component invariant, unknown
// locations, and route conflicts with active bidirectional pricings.
func (s *AdminService) validatePricing(ctx context.Context, pricing *model.Pricing) error {
	if err := pricing.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if pricing.StartLocationID == pricing.EndLocationID {
		return fmt.Errorf("%w: start and end location must differ", ErrInvalidInput)
	}
	for _, id := range []int64{pricing.StartLocationID, pricing.EndLocationID} {
		if _, err := s.locations.Get(ctx, id); err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: unknown location %d", ErrInvalidInput, id)
		} else if err != nil {
			return err
		}
	}

	active, err := s.pricings.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, other := range active {
		if other.ID == pricing.ID {
			continue
		}
		sameRoute := other.StartLocationID == pricing.StartLocationID &&
			other.EndLocationID == pricing.EndLocationID
		reverseRoute := other.StartLocationID == pricing.EndLocationID &&
			other.EndLocationID == pricing.StartLocationID
		if sameRoute {
			return fmt.Errorf("%w: an active pricing for this route already exists", ErrInvalidInput)
		}
		if reverseRoute && (other.IsBidirectional || pricing.IsBidirectional) {
			return fmt.Errorf("%w: an active pricing already covers this route pair", ErrInvalidInput)
		}
	}
	return nil
}

func (s *AdminService) ListLocations(ctx context.Context) ([]model.Location, error) {
	return s.locations.List(ctx)
}

// AddLocation resolves a location from upstream by its external ID and stores
// it. Also used to refresh a stale name.
func (s *AdminService) AddLocation(ctx context.Context, id int64) (*model.Location, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: location id must be positive", ErrInvalidInput)
	}
	location, err := s.resolver.ResolveLocation(ctx, s.cfg.ESI.Token, id)
	if err != nil {
		return nil, fmt.Errorf("resolve location %d: %w", id, err)
	}
	return location, nil
}

// DeleteLocation removes a stored location. Locations referenced by a pricing
// stay put; the pricing must go first.
func (s *AdminService) DeleteLocation(ctx context.Context, id int64) error {
	pricings, err := s.pricings.List(ctx)
	if err != nil {
		return err
	}
	for _, pricing := range pricings {
		if pricing.StartLocationID == id || pricing.EndLocationID == id {
			return fmt.Errorf("%w: location %d is used by pricing %d", ErrInvalidInput, id, pricing.ID)
		}
	}

	err = s.locations.Delete(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	return err
}

func (s *AdminService) ListContracts(ctx context.Context, filter repository.ContractFilter) ([]model.Contract, error) {
	return s.contracts.List(ctx, filter)
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *AdminService) ExportContracts(ctx context.Context, asPDF bool) (*ExportResult, error) {
	handler, err := s.handlers.Get(ctx)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNoHandler
	}
	if err != nil {
		return nil, err
	}

	contracts, err := s.contracts.List(ctx, repository.ContractFilter{})
	if err != nil {
		return nil, err
	}

	export := model.ContractExport{
		OrganizationName: handler.OrganizationName,
		OperationMode:    handler.OperationMode,
		GeneratedAt:      time.Now().UTC(),
		FullRouteNames:   s.cfg.Freight.FullRouteNames,
		Contracts:        contracts,
	}

	var content []byte
	extension := "xlsx"
	if asPDF {
		content, err = s.pdf.Generate(export)
		extension = "pdf"
	} else {
		content, err = s.excel.Generate(export)
	}
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: buildExportFileName(handler.OrganizationName, export.GeneratedAt, extension),
		Content:  content,
	}, nil
}

func buildExportFileName(organization string, at time.Time, extension string) string {
	name := sanitizeFileName(organization)
	if name == "" {
		name = "freight"
	}
	return fmt.Sprintf("contracts-%s-%s.%s", name, at.Format("20060102-150405"), extension)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
