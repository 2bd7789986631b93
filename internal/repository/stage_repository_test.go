package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

var stageColumns = []string{"id", "tenant_id", "name", "pipeline_type", "display_order", "color", "created_at"}

func TestStageRepositoryFindDefaultOrdersByDisplayOrder(t *testing.T) {
	db, mock, cleanup := newPipelineRepoMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id = $1 AND pipeline_type = $2 ORDER BY display_order ASC, created_at ASC, id ASC LIMIT 1")).
		WithArgs("tenant-a", models.StagePipelineTypeRecruiting).
		WillReturnRows(sqlmock.NewRows(stageColumns).AddRow("stage-1", "tenant-a", "Applied", "recruiting", int64(0), nil, time.Now()))

	stage, err := repo.FindDefault(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "stage-1", stage.ID)
	assert.Nil(t, stage.Color)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryFindDefaultWithoutStages(t *testing.T) {
	db, mock, cleanup := newPipelineRepoMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stages WHERE tenant_id = $1 AND pipeline_type = $2")).
		WithArgs("tenant-empty", models.StagePipelineTypeRecruiting).
		WillReturnRows(sqlmock.NewRows(stageColumns))

	_, err := repo.FindDefault(context.Background(), "tenant-empty")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryFindByIDScopesTenant(t *testing.T) {
	db, mock, cleanup := newPipelineRepoMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stages WHERE tenant_id = $1 AND id = $2")).
		WithArgs("tenant-b", "stage-1").
		WillReturnRows(sqlmock.NewRows(stageColumns))

	_, err := repo.FindByID(context.Background(), "tenant-b", "stage-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
