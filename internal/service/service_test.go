package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/freight-sync/internal/config"
	"github.com/nurpe/freight-sync/internal/db"
	"github.com/nurpe/freight-sync/internal/esi"
	"github.com/nurpe/freight-sync/internal/model"
	"github.com/nurpe/freight-sync/internal/notify"
	"github.com/nurpe/freight-sync/internal/repository"
)

const (
	testAllianceID    = 3001
	testCorporationID = 2001
	testCharacterID   = 1001

	jitaStationID    = 60003760
	amamakeStationID = 60012721
	testStructureID  = 1021334273260
)

type testEnv struct {
	db        *gorm.DB
	handlers  *repository.HandlerRepository
	contracts *repository.ContractRepository
	locations *repository.LocationRepository
	entities  *repository.EntityRepository
	pricings  *repository.PricingRepository
	cfg       *config.Config
}

// newTestEnv opens a per-test in-memory database to avoid cross-test
// interference.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	return &testEnv{
		db:        database,
		handlers:  repository.NewHandlerRepository(database),
		contracts: repository.NewContractRepository(database),
		locations: repository.NewLocationRepository(database),
		entities:  repository.NewEntityRepository(database),
		pricings:  repository.NewPricingRepository(database),
		cfg: &config.Config{
			ESI: config.ESIConfig{Token: "test-token"},
			Freight: config.FreightConfig{
				OperationMode:       model.ModeMyAlliance,
				HoursUntilStale:     24,
				SyncGraceMinutes:    30,
				SyncIntervalMinutes: 10,
			},
		},
	}
}

func (e *testEnv) seedHandler(t *testing.T, mode model.OperationMode) *model.ContractHandler {
	t.Helper()
	handler := &model.ContractHandler{
		OrganizationID:   testAllianceID,
		OrganizationName: "Test Alliance",
		CorporationID:    testCorporationID,
		CorporationName:  "Test Hauling Corp",
		CharacterID:      testCharacterID,
		OperationMode:    mode,
	}
	require.NoError(t, e.handlers.Save(context.Background(), handler))
	return handler
}

func (e *testEnv) seedLocation(t *testing.T, id int64, name string) {
	t.Helper()
	require.NoError(t, e.locations.Upsert(context.Background(), &model.Location{
		ID: id, Name: name, CategoryID: model.CategoryStationID,
	}))
}

// fakeUpstream is an in-memory stand-in for the ESI client.
type fakeUpstream struct {
	contracts    []esi.ContractRecord
	contractsErr error
	stations     map[int64]*esi.Station
	structures   map[int64]*esi.Structure
	names        map[int64]esi.NamedEntity
	characters   map[int64]*esi.Character
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		stations: map[int64]*esi.Station{
			jitaStationID:    {Name: "Jita IV - Moon 4 - Caldari Navy Assembly Plant", SystemID: 30000142, TypeID: 52678},
			amamakeStationID: {Name: "Amamake V - Moon 1 - Expert Distribution Retail Center", SystemID: 30002537, TypeID: 1531},
		},
		structures: map[int64]*esi.Structure{},
		names: map[int64]esi.NamedEntity{
			1011: {ID: 1011, Name: "Issuing Pilot", Category: model.EntityCategoryCharacter},
			2011: {ID: 2011, Name: "Issuing Corp", Category: model.EntityCategoryCorporation},
			1099: {ID: 1099, Name: "Hauling Pilot", Category: model.EntityCategoryCharacter},
			2099: {ID: 2099, Name: "Hauling Corp", Category: model.EntityCategoryCorporation},
		},
		characters: map[int64]*esi.Character{
			1099: {Name: "Hauling Pilot", CorporationID: 2099},
		},
	}
}

func (f *fakeUpstream) CorporationContracts(_ context.Context, _ string, _ int64) ([]esi.ContractRecord, error) {
	if f.contractsErr != nil {
		return nil, f.contractsErr
	}
	return f.contracts, nil
}

func (f *fakeUpstream) Station(_ context.Context, id int64) (*esi.Station, error) {
	station, ok := f.stations[id]
	if !ok {
		return nil, &esi.StatusError{Code: http.StatusNotFound}
	}
	return station, nil
}

func (f *fakeUpstream) Structure(_ context.Context, _ string, id int64) (*esi.Structure, error) {
	structure, ok := f.structures[id]
	if !ok {
		return nil, &esi.StatusError{Code: http.StatusForbidden}
	}
	return structure, nil
}

func (f *fakeUpstream) Names(_ context.Context, ids []int64) ([]esi.NamedEntity, error) {
	var result []esi.NamedEntity
	for _, id := range ids {
		if named, ok := f.names[id]; ok {
			result = append(result, named)
		}
	}
	return result, nil
}

func (f *fakeUpstream) Character(_ context.Context, id int64) (*esi.Character, error) {
	character, ok := f.characters[id]
	if !ok {
		return nil, &esi.StatusError{Code: http.StatusNotFound}
	}
	return character, nil
}

// fakeSender records every delivered message.
type fakeSender struct {
	messages []notify.Message
	err      error
}

func (f *fakeSender) Send(_ context.Context, message notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func courierRecord(contractID int64, assigneeID int64, issued time.Time) esi.ContractRecord {
	return esi.ContractRecord{
		ContractID:          contractID,
		Type:                "courier",
		Status:              string(model.StatusOutstanding),
		AssigneeID:          assigneeID,
		IssuerID:            1011,
		IssuerCorporationID: 2011,
		StartLocationID:     jitaStationID,
		EndLocationID:       amamakeStationID,
		Reward:              6000000,
		Collateral:          100000000,
		Volume:              10000,
		DaysToComplete:      3,
		DateIssued:          issued,
		DateExpired:         issued.Add(7 * 24 * time.Hour),
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
