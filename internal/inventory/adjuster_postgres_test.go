package inventory

import (
	"context"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/migrate"
)

const testDSNEnv = "VENUEOPS_TEST_DB_DSN"

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Run(context.Background(), sqlDB, "../../pkg/migrate/migrations", "up"))
	return conn
}

func TestAdjustStockConcurrentDecrementsNeverOversell(t *testing.T) {
	conn := openPostgres(t)
	client := db.NewFromGorm(conn)
	adjuster, err := NewStockAdjuster(NewRepository(conn))
	require.NoError(t, err)

	const stock, buyers = 10, 25
	item := dbtest.Concession(t, conn, "Popcorn "+uuid.NewString(), 500, stock)

	var sold, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
				_, err := adjuster.AdjustStock(context.Background(), tx, StockAdjustment{
					ItemID:  item.ID,
					Delta:   -1,
					Kind:    enums.StockMovementSale,
					ActorID: uuid.New(),
				})
				return err
			})
			switch {
			case err == nil:
				sold.Add(1)
			case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int32(stock), sold.Load())
	require.Equal(t, int32(buyers-stock), rejected.Load())
	require.Equal(t, 0, dbtest.Stock(t, conn, item.ID))

	var movements int64
	require.NoError(t, conn.Model(&models.StockMovement{}).Where("item_id = ?", item.ID).Count(&movements).Error)
	require.Equal(t, int64(stock), movements)
}
