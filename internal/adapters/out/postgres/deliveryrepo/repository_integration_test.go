package deliveryrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/deliveryrepo"
	"dispatch/internal/core/domain/model/delivery"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DeliveryRepositoryIntegrationTestSuite provides integration tests for
// DeliveryRepository using PostgreSQL containers to verify persistence behavior.
type DeliveryRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *deliveryrepo.GormDeliveryRepository
	now        time.Time
}

func (suite *DeliveryRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&deliveryrepo.DeliveryDTO{}))
}

func (suite *DeliveryRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE deliveries").Error)
	suite.repository = deliveryrepo.NewGormDeliveryRepository(suite.db)
	suite.now = time.Now().UTC().Truncate(time.Second)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

// seedDelivery inserts a raw delivery row. Seeding bypasses the domain layer
// because this subsystem never creates deliveries itself.
func (suite *DeliveryRepositoryIntegrationTestSuite) seedDelivery(orderID string, status delivery.Status, estimatedDeliveryAt, updatedAt time.Time, reminderSent bool) uuid.UUID {
	dto := deliveryrepo.DeliveryDTO{
		ID:                  uuid.New(),
		OrderID:             orderID,
		Status:              int(status),
		EstimatedDeliveryAt: estimatedDeliveryAt,
		ReminderSent:        reminderSent,
		CreatedAt:           updatedAt.Add(-time.Hour),
		UpdatedAt:           updatedAt,
	}
	suite.Require().NoError(suite.db.Create(&dto).Error)
	return dto.ID
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestCountByStatus() {
	ctx := context.Background()
	suite.seedDelivery("ORD-1", delivery.Pending, suite.now.Add(time.Hour), suite.now, false)
	suite.seedDelivery("ORD-2", delivery.InTransit, suite.now.Add(time.Hour), suite.now, false)
	suite.seedDelivery("ORD-3", delivery.InTransit, suite.now.Add(2*time.Hour), suite.now, false)
	suite.seedDelivery("ORD-4", delivery.Delivered, suite.now.Add(-time.Hour), suite.now, false)

	total, err := suite.repository.Count(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(4), total)

	counts, err := suite.repository.CountByStatus(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), counts[delivery.Pending])
	suite.Equal(int64(2), counts[delivery.InTransit])
	suite.Equal(int64(1), counts[delivery.Delivered])
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestFindOverdue() {
	ctx := context.Background()
	overdueID := suite.seedDelivery("ORD-10", delivery.InTransit, suite.now.Add(-2*time.Hour), suite.now, false)
	suite.seedDelivery("ORD-11", delivery.InTransit, suite.now.Add(time.Hour), suite.now, false)
	// Past its estimate but already delivered, so not overdue.
	suite.seedDelivery("ORD-12", delivery.Delivered, suite.now.Add(-2*time.Hour), suite.now, false)

	overdue, err := suite.repository.FindOverdue(ctx, suite.now)
	suite.Require().NoError(err)
	suite.Require().Len(overdue, 1)
	suite.Equal(overdueID, overdue[0].ID())
	suite.Equal("ORD-10", overdue[0].OrderID())
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestUpdate_PersistsNotes() {
	ctx := context.Background()
	id := suite.seedDelivery("ORD-20", delivery.InTransit, suite.now.Add(-3*time.Hour), suite.now, false)

	overdue, err := suite.repository.FindOverdue(ctx, suite.now)
	suite.Require().NoError(err)
	suite.Require().Len(overdue, 1)

	d := overdue[0]
	suite.Require().NoError(d.AppendNote("OVERDUE: delivery is 3 hours past its estimate", suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, d))

	reloaded, err := suite.repository.FindOverdue(ctx, suite.now)
	suite.Require().NoError(err)
	suite.Require().Len(reloaded, 1)
	suite.Equal(id, reloaded[0].ID())
	suite.Require().Len(reloaded[0].Notes(), 1)
	suite.Contains(reloaded[0].Notes()[0], "OVERDUE")
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestArchivableSelectionAndDeletion() {
	ctx := context.Background()
	cutoff := suite.now.Add(-90 * 24 * time.Hour)
	oldID := suite.seedDelivery("ORD-30", delivery.Delivered, suite.now.Add(-91*24*time.Hour), suite.now.Add(-91*24*time.Hour), false)
	cancelledID := suite.seedDelivery("ORD-31", delivery.Cancelled, suite.now.Add(-100*24*time.Hour), suite.now.Add(-100*24*time.Hour), false)
	// Terminal but recent, and old but still in transit: both stay.
	suite.seedDelivery("ORD-32", delivery.Delivered, suite.now.Add(-time.Hour), suite.now, false)
	suite.seedDelivery("ORD-33", delivery.InTransit, suite.now.Add(-100*24*time.Hour), suite.now.Add(-100*24*time.Hour), false)

	archivable, err := suite.repository.FindArchivable(ctx, cutoff)
	suite.Require().NoError(err)
	suite.Require().Len(archivable, 2)

	deleted, err := suite.repository.DeleteByIDs(ctx, []uuid.UUID{oldID, cancelledID})
	suite.Require().NoError(err)
	suite.Equal(int64(2), deleted)

	total, err := suite.repository.Count(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestDeleteByIDs_EmptySet() {
	ctx := context.Background()
	suite.seedDelivery("ORD-40", delivery.Delivered, suite.now, suite.now, false)

	deleted, err := suite.repository.DeleteByIDs(ctx, nil)
	suite.Require().NoError(err)
	suite.Equal(int64(0), deleted)

	total, err := suite.repository.Count(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestReminderFlow() {
	ctx := context.Background()
	dueID := suite.seedDelivery("ORD-50", delivery.InTransit, suite.now.Add(time.Hour), suite.now, false)
	// Outside the window and already reminded: neither is due.
	suite.seedDelivery("ORD-51", delivery.InTransit, suite.now.Add(5*time.Hour), suite.now, false)
	suite.seedDelivery("ORD-52", delivery.InTransit, suite.now.Add(time.Hour), suite.now, true)

	due, err := suite.repository.FindDueForReminder(ctx, suite.now, suite.now.Add(2*time.Hour))
	suite.Require().NoError(err)
	suite.Require().Len(due, 1)
	suite.Equal(dueID, due[0].ID())

	flipped, err := suite.repository.MarkReminderSent(ctx, dueID, suite.now)
	suite.Require().NoError(err)
	suite.True(flipped)

	// The second flip reports false, which prevents a duplicate reminder.
	flipped, err = suite.repository.MarkReminderSent(ctx, dueID, suite.now)
	suite.Require().NoError(err)
	suite.False(flipped)

	due, err = suite.repository.FindDueForReminder(ctx, suite.now, suite.now.Add(2*time.Hour))
	suite.Require().NoError(err)
	suite.Empty(due)
}

func TestDeliveryRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryRepositoryIntegrationTestSuite))
}
