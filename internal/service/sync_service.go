package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/config"
	"github.com/nurpe/freight-sync/internal/esi"
	"github.com/nurpe/freight-sync/internal/model"
	"github.com/nurpe/freight-sync/internal/repository"
)

// UpstreamClient is the slice of the ESI client the synchronizer needs.
type UpstreamClient interface {
	CorporationContracts(ctx context.Context, token string, corporationID int64) ([]esi.ContractRecord, error)
	Station(ctx context.Context, id int64) (*esi.Station, error)
	Structure(ctx context.Context, token string, id int64) (*esi.Structure, error)
	Names(ctx context.Context, ids []int64) ([]esi.NamedEntity, error)
	Character(ctx context.Context, id int64) (*esi.Character, error)
}

// SyncService brings local contract rows into agreement with the upstream
// feed for the handler's configured scope. One batch pass, sequential, with
// per-contract error isolation.
type SyncService struct {
	handlers  *repository.HandlerRepository
	contracts *repository.ContractRepository
	locations *repository.LocationRepository
	entities  *repository.EntityRepository
	upstream  UpstreamClient
	cfg       *config.Config
	log       zerolog.Logger
}

func NewSyncService(
	handlers *repository.HandlerRepository,
	contracts *repository.ContractRepository,
	locations *repository.LocationRepository,
	entities *repository.EntityRepository,
	upstream UpstreamClient,
	cfg *config.Config,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		handlers:  handlers,
		contracts: contracts,
		locations: locations,
		entities:  entities,
		upstream:  upstream,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes one sync cycle under the handler lease. A failure to resolve a
// single contract skips that contract only; the upstream feed still carries
// it next cycle.
func (s *SyncService) Run(ctx context.Context) error {
	handler, err := s.handlers.Get(ctx)
	if err == gorm.ErrRecordNotFound {
		return ErrNoHandler
	}
	if err != nil {
		return err
	}

	if handler.CharacterID == 0 {
		_ = s.handlers.SetLastError(ctx, handler.OrganizationID, model.SyncErrorNoCharacter)
		return fmt.Errorf("handler %d has no character configured", handler.OrganizationID)
	}

	lease, err := s.handlers.AcquireSyncLease(ctx, handler.OrganizationID, s.cfg.SyncGrace())
	if err == repository.ErrLeaseHeld {
		return ErrSyncLeaseHeld
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := s.handlers.ReleaseSyncLease(context.WithoutCancel(ctx), handler.OrganizationID, lease); err != nil {
			s.log.Error().Err(err).Msg("failed to release sync lease")
		}
	}()

	token := s.cfg.ESI.Token
	records, err := s.upstream.CorporationContracts(ctx, token, handler.CorporationID)
	if err != nil {
		syncErr := model.SyncErrorUpstreamUnavailable
		if esi.IsAuthError(err) {
			syncErr = model.SyncErrorTokenInvalid
		}
		_ = s.handlers.SetLastError(ctx, handler.OrganizationID, syncErr)
		return fmt.Errorf("fetch contracts: %w", err)
	}

	records = filterScope(records, handler)
	s.log.Info().Int("count", len(records)).Msg("processing courier contracts")

	processed, skipped := 0, 0
	for _, record := range records {
		if err := s.upsertRecord(ctx, handler, token, record); err != nil {
			skipped++
			s.log.Warn().Err(err).
				Int64("contract_id", record.ContractID).
				Msg("skipping contract this pass")
			continue
		}
		processed++
	}

	if err := s.handlers.MarkSynced(ctx, handler.OrganizationID, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Info().Int("processed", processed).Int("skipped", skipped).Msg("contract sync finished")
	return nil
}

// filterScope keeps courier contracts addressed to the scope target of the
// handler's operation mode: the alliance for my_alliance, the corporation for
// the corporation modes. corp_in_alliance only describes the credential's
// membership; its ingest target is still the corporation.
func filterScope(records []esi.ContractRecord, handler *model.ContractHandler) []esi.ContractRecord {
	assignee := handler.CorporationID
	if handler.OperationMode == model.ModeMyAlliance {
		assignee = handler.OrganizationID
	}

	var scoped []esi.ContractRecord
	for _, record := range records {
		if record.Type != "courier" {
			continue
		}
		if handler.OperationMode == model.ModeCorpPublic {
			// any courier contract addressed to the corp, regardless of
			// availability
			if record.AssigneeID == handler.CorporationID {
				scoped = append(scoped, record)
			}
			continue
		}
		if record.AssigneeID == assignee {
			scoped = append(scoped, record)
		}
	}
	return scoped
}

func (s *SyncService) upsertRecord(ctx context.Context, handler *model.ContractHandler, token string, record esi.ContractRecord) error {
	startLocation, err := s.getOrCreateLocation(ctx, token, record.StartLocationID)
	if err != nil {
		return fmt.Errorf("resolve start location %d: %w", record.StartLocationID, err)
	}
	endLocation, err := s.getOrCreateLocation(ctx, token, record.EndLocationID)
	if err != nil {
		return fmt.Errorf("resolve end location %d: %w", record.EndLocationID, err)
	}

	if err := s.ensureEntity(ctx, record.IssuerID, model.EntityCategoryCharacter); err != nil {
		return fmt.Errorf("resolve issuer %d: %w", record.IssuerID, err)
	}
	if err := s.ensureEntity(ctx, record.IssuerCorporationID, model.EntityCategoryCorporation); err != nil {
		return fmt.Errorf("resolve issuer corporation %d: %w", record.IssuerCorporationID, err)
	}

	acceptorID, acceptorCorporationID := s.identifyAcceptor(ctx, record)

	contract := &model.Contract{
		HandlerID:             handler.OrganizationID,
		ContractID:            record.ContractID,
		Status:                model.ContractStatus(record.Status),
		IssuerID:              record.IssuerID,
		IssuerCorporationID:   record.IssuerCorporationID,
		AcceptorID:            acceptorID,
		AcceptorCorporationID: acceptorCorporationID,
		StartLocationID:       startLocation.ID,
		EndLocationID:         endLocation.ID,
		Reward:                record.Reward,
		Collateral:            record.Collateral,
		Volume:                record.Volume,
		DaysToComplete:        record.DaysToComplete,
		ForCorporation:        record.ForCorporation,
		Title:                 record.Title,
		DateIssued:            record.DateIssued,
		DateExpired:           record.DateExpired,
		DateAccepted:          record.DateAccepted,
		DateCompleted:         record.DateCompleted,
	}

	_, err = s.contracts.Upsert(ctx, contract)
	return err
}

// getOrCreateLocation returns the stored location or lazily resolves it from
// upstream. An inaccessible structure is stored under a placeholder name so
// the contract can still be processed.
func (s *SyncService) getOrCreateLocation(ctx context.Context, token string, id int64) (*model.Location, error) {
	location, err := s.locations.Get(ctx, id)
	if err == nil {
		return location, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return s.ResolveLocation(ctx, token, id)
}

// ResolveLocation fetches location data from upstream and upserts the row.
// Also used by the admin refresh action.
func (s *SyncService) ResolveLocation(ctx context.Context, token string, id int64) (*model.Location, error) {
	var location *model.Location

	if model.IsStationID(id) {
		station, err := s.upstream.Station(ctx, id)
		if err != nil {
			return nil, err
		}
		location = &model.Location{
			ID:            id,
			Name:          station.Name,
			SolarSystemID: &station.SystemID,
			TypeID:        &station.TypeID,
			CategoryID:    model.CategoryStationID,
		}
	} else {
		structure, err := s.upstream.Structure(ctx, token, id)
		if esi.IsForbidden(err) {
			s.log.Warn().Int64("location_id", id).Msg("no access to structure, storing placeholder")
			location = &model.Location{
				ID:         id,
				Name:       fmt.Sprintf("Unknown structure %d", id),
				CategoryID: model.CategoryStructureID,
			}
		} else if err != nil {
			return nil, err
		} else {
			location = &model.Location{
				ID:            id,
				Name:          structure.Name,
				SolarSystemID: &structure.SolarSystemID,
				TypeID:        &structure.TypeID,
				CategoryID:    model.CategoryStructureID,
			}
		}
	}

	if err := s.locations.Upsert(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// ensureEntity lazily caches the entity name. The category reported by the
// names endpoint wins; the hint only fills in when the endpoint omits it.
func (s *SyncService) ensureEntity(ctx context.Context, id int64, categoryHint string) error {
	if _, err := s.entities.Get(ctx, id); err == nil {
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	named, err := s.upstream.Names(ctx, []int64{id})
	if err != nil {
		return err
	}
	if len(named) != 1 {
		return fmt.Errorf("names endpoint returned %d results for id %d", len(named), id)
	}

	category := named[0].Category
	if category == "" {
		category = categoryHint
	}
	return s.entities.Upsert(ctx, &model.EveEntity{
		ID:       named[0].ID,
		Name:     named[0].Name,
		Category: category,
	})
}

// identifyAcceptor resolves the acceptor, which may be a character or a
// corporation. Failure here does not skip the contract; the acceptor is
// simply left unset, matching the recover-locally error policy.
func (s *SyncService) identifyAcceptor(ctx context.Context, record esi.ContractRecord) (*int64, *int64) {
	if record.AcceptorID == 0 {
		return nil, nil
	}

	if err := s.ensureEntity(ctx, record.AcceptorID, ""); err != nil {
		s.log.Warn().Err(err).
			Int64("contract_id", record.ContractID).
			Int64("acceptor_id", record.AcceptorID).
			Msg("failed to identify acceptor")
		return nil, nil
	}

	entity, err := s.entities.Get(ctx, record.AcceptorID)
	if err != nil {
		return nil, nil
	}

	switch {
	case entity.IsCharacter():
		acceptorID := entity.ID
		character, err := s.upstream.Character(ctx, entity.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("acceptor_id", entity.ID).Msg("failed to resolve acceptor corporation")
			return &acceptorID, nil
		}
		if err := s.ensureEntity(ctx, character.CorporationID, model.EntityCategoryCorporation); err != nil {
			return &acceptorID, nil
		}
		corporationID := character.CorporationID
		return &acceptorID, &corporationID
	case entity.IsCorporation():
		corporationID := entity.ID
		return nil, &corporationID
	default:
		s.log.Warn().
			Int64("acceptor_id", entity.ID).
			Str("category", entity.Category).
			Msg("acceptor has unexpected category")
		return nil, nil
	}
}
