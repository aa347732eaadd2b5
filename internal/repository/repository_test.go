package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"r6-tracker/internal/config"
	"r6-tracker/internal/database"
	"r6-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) (*RosterRepository, *RecordRepository) {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRosterRepository(db, zerolog.Nop()), NewRecordRepository(db, zerolog.Nop())
}

func TestSaveAndLoadAllies(t *testing.T) {
	rosters, _ := testDB(t)
	ctx := context.Background()

	allies := []domain.PlayerIdentity{
		{Platform: domain.PlatformUbisoft, Username: "Shadow.Leg"},
		{Platform: domain.PlatformPSN, Username: "beaulo_tv"},
	}
	require.NoError(t, rosters.SaveAllies(ctx, allies))

	loaded, err := rosters.LoadAllies(ctx)
	require.NoError(t, err)
	require.Equal(t, allies, loaded)
}

func TestSaveAlliesReplacesPrevious(t *testing.T) {
	rosters, _ := testDB(t)
	ctx := context.Background()

	first := []domain.PlayerIdentity{
		{Platform: domain.PlatformUbisoft, Username: "old_ally"},
		{Platform: domain.PlatformXbox, Username: "gone_soon"},
	}
	require.NoError(t, rosters.SaveAllies(ctx, first))

	second := []domain.PlayerIdentity{
		{Platform: domain.PlatformUbisoft, Username: "new_ally"},
	}
	require.NoError(t, rosters.SaveAllies(ctx, second))

	loaded, err := rosters.LoadAllies(ctx)
	require.NoError(t, err)
	require.Equal(t, second, loaded)
}

func TestLoadAlliesEmpty(t *testing.T) {
	rosters, _ := testDB(t)

	loaded, err := rosters.LoadAllies(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestRecordRoundtrip(t *testing.T) {
	_, records := testDB(t)
	ctx := context.Background()

	rec := domain.NewConsolidatedRecord(domain.PlayerIdentity{
		Platform: domain.PlatformUbisoft,
		Username: "Shadow.Leg",
	})
	rec.Overview = &domain.OverviewFragment{RankPoints: "4,812"}
	rec.Finalize(time.Now())

	require.NoError(t, records.SaveRecord(ctx, domain.RoleMain, rec))

	loaded, err := records.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, domain.RoleMain, loaded[0].Role)
	require.Equal(t, rec.Identity, loaded[0].Record.Identity)
	require.Equal(t, "4,812", loaded[0].Record.Overview.RankPoints)
}

func TestSaveRecordUpserts(t *testing.T) {
	_, records := testDB(t)
	ctx := context.Background()

	id := domain.PlayerIdentity{Platform: domain.PlatformUbisoft, Username: "Shadow.Leg"}

	rec := domain.NewConsolidatedRecord(id)
	require.NoError(t, records.SaveRecord(ctx, domain.RoleAlly, rec))

	rec2 := domain.NewConsolidatedRecord(id)
	rec2.Overview = &domain.OverviewFragment{RankPoints: "5,001"}
	require.NoError(t, records.SaveRecord(ctx, domain.RoleAlly, rec2))

	loaded, err := records.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "5,001", loaded[0].Record.Overview.RankPoints)
}

func TestDeleteRecord(t *testing.T) {
	_, records := testDB(t)
	ctx := context.Background()

	id := domain.PlayerIdentity{Platform: domain.PlatformPSN, Username: "beaulo_tv"}
	require.NoError(t, records.SaveRecord(ctx, domain.RoleAlly, domain.NewConsolidatedRecord(id)))
	require.NoError(t, records.DeleteRecord(ctx, id))

	loaded, err := records.LoadRecords(ctx)
	require.NoError(t, err)
	require.Empty(t, loaded)
}
